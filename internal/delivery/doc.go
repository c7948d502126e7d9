// Package delivery returns a rendered video to its user, either as an inline
// chat attachment or as a link to an uploaded copy.
package delivery

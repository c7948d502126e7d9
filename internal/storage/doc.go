// Package storage uploads rendered videos to an S3-compatible object store
// and returns public links to them.
package storage

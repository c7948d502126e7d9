// Package staging maintains the per-session artifact directories under
// <work_dir>/sessions: listing them for status output and sweeping those a
// crashed or killed process left behind.
package staging

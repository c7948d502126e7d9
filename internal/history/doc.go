// Package history keeps a SQLite ledger of concluded burn sessions.
//
// Rows are written once, when a session reaches Completed or Failed, and are
// only read back by operator tooling (`subburn history`, `subburn status`).
// Nothing in the ledger is used to resume or rebuild a session.
package history

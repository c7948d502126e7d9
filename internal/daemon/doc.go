// Package daemon coordinates the long-running bot process.
//
// It wires configuration, the session manager, the Telegram poller, and the
// stale-session janitor into a single lifecycle with flock-based locking to
// prevent two bots from polling the same token out of one work directory.
// The daemon also answers status queries for the IPC server and owns the
// operator notification sent when polling starts.
//
// Keep orchestration logic here: session rules live in internal/session and
// transport details in internal/telegram.
package daemon

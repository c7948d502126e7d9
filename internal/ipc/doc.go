// Package ipc exposes the running bot over JSON-RPC on a Unix socket and
// ships the matching client used by the CLI.
//
// The server answers status, log, and notification-test requests from a
// Backend (the daemon). Wire types are plain JSON structs so the CLI never
// imports session internals.
package ipc

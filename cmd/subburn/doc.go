// Package main hosts the subburn CLI.
//
// `subburn run` starts the Telegram bot in the foreground. The remaining
// commands manage a background bot over its IPC socket (start, stop, status,
// logs, test-notify) or work directly on local state (config, history, font).
package main

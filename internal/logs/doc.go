// Package logs reads the bot's run logs for the CLI.
//
// Last reads the final lines of a log without scanning the whole file, and
// Follow streams lines appended after an offset until the context ends. The
// daemon serves the same helpers over IPC so `subburn logs` works whether or
// not the caller can read the log directory.
package logs

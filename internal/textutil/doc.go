// Package textutil cleans user-supplied text before it is reused as a file
// name in messages sent back to Telegram.
package textutil

// Package telegram adapts the Telegram Bot API to the session manager.
//
// Client owns the bot connection and implements the outbound side: text
// notices for session.Notifier and video attachments for delivery.VideoSender.
// Poller consumes long-poll updates and dispatches every message on its own
// goroutine, so one user's render never delays another user's upload.
// Documents reach the session layer as lazily fetched handles; the bytes are
// only downloaded once the session has accepted the artifact kind.
package telegram

// Package notifications tells the bot operator about session outcomes via
// ntfy.
//
// The ntfy implementation posts to the topic URL configured in config.toml and
// degrades to a no-op when no topic is set. Events are enumerated so session
// code emits consistent messages without duplicating HTTP glue; per-event
// toggles in [notifications] decide which ones are actually sent.
package notifications

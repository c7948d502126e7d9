// Package services defines shared utilities consumed by the session workflow
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp user IDs, session IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the kinds the session boundary reacts to (rejections that leave a
//     session untouched versus failures that end it).
//
// Use these helpers when wiring new workflow steps so error handling and
// observability stay uniform across the bot.
package services

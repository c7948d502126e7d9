// Package config loads, normalizes, and validates subburn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SUBBURN_BOT_TOKEN. The Config type centralizes every knob the bot and CLI
// need, so the work directory, subtitle style, delivery strategy, and storage
// credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

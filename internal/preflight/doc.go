// Package preflight provides readiness checks for the binaries, paths, and
// services the bot depends on.
//
// These checks run in two contexts:
//   - The daemon calls ValidateStartup before polling. A missing ffmpeg, an
//     unreadable font, or an unreachable bucket in link mode aborts startup.
//   - The CLI "subburn status" command runs RunAll and CheckSystemDeps to
//     display health without starting the bot.
//
// Each check is gated by its config toggle; the bucket is only checked when
// link delivery is configured.
package preflight

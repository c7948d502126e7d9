// Package ffprobe reads the basic shape of a rendered video (dimensions,
// duration, size) from ffprobe's JSON output.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns the parsed Result
//
// Result.Video summarizes the first video stream for chat attachments.
package ffprobe

// Package render builds and runs the ffmpeg invocation that burns a subtitle
// file into a video.
//
// The filter string is a pure function of the subtitle path and Style, so two
// invocations with equal inputs produce identical arguments. Render either
// leaves exactly one output file behind or none.
package render

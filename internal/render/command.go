package render

import (
	"strings"
)

// Invocation is one burn request: two inputs, one output, one style.
type Invocation struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	Style        Style
}

// EscapeSubtitlePath escapes ':' so the filter parser does not treat it as an
// option separator. No other character is altered.
func EscapeSubtitlePath(path string) string {
	return strings.ReplaceAll(path, ":", `\:`)
}

// BuildFilter returns the subtitles video filter for the given path and style.
func BuildFilter(subtitlePath string, style Style) string {
	var b strings.Builder
	b.WriteString("subtitles=")
	b.WriteString(EscapeSubtitlePath(subtitlePath))
	b.WriteString(":force_style='")
	b.WriteString(style.ForceStyle())
	b.WriteString("'")
	return b.String()
}

// BuildArgs returns ffmpeg arguments (without the binary) for inv. Audio is
// copied untouched and an existing output is overwritten.
func BuildArgs(inv Invocation, videoCodec string) []string {
	videoCodec = strings.TrimSpace(videoCodec)
	if videoCodec == "" {
		videoCodec = "libx264"
	}
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", "error",
		"-i", inv.VideoPath,
		"-vf", BuildFilter(inv.SubtitlePath, inv.Style),
		"-c:v", videoCodec,
		"-c:a", "copy",
		inv.OutputPath,
	}
}

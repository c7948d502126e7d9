package session

import (
	"path/filepath"
	"strings"
)

// ArtifactKind is what an inbound document is accepted as.
type ArtifactKind int

const (
	ArtifactUnknown ArtifactKind = iota
	ArtifactVideo
	ArtifactSubtitle
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactVideo:
		return "video"
	case ArtifactSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".m4v": {},
}

// Classify decides the artifact kind from the declared file name only; the
// content is never inspected.
func Classify(fileName string) ArtifactKind {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if _, ok := videoExtensions[ext]; ok {
		return ArtifactVideo
	}
	if ext == ".srt" {
		return ArtifactSubtitle
	}
	return ArtifactUnknown
}

// Local file names inside a session directory.
const (
	videoFileName    = "video.mp4"
	subtitleFileName = "subtitles.srt"
	outputFileName   = "output.mp4"
)

package services

import (
	"errors"
	"fmt"
	"strings"

	"subburn/internal/textutil"
)

var (
	ErrInvalidArtifactKind = errors.New("invalid artifact kind")
	ErrDuplicateArtifact   = errors.New("duplicate artifact")
	ErrFontResolution      = errors.New("font resolution error")
	ErrEncodingFailure     = errors.New("encoding failure")
	ErrUploadFailure       = errors.New("upload failure")
	ErrDownloadFailure     = errors.New("download failure")
	ErrMissingInput        = errors.New("missing input")
)

// ErrorKind is the stable classification used in logs and the history ledger.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindInvalidArtifactKind ErrorKind = "invalid_artifact_kind"
	KindDuplicateArtifact   ErrorKind = "duplicate_artifact"
	KindFontResolution      ErrorKind = "font_resolution"
	KindEncodingFailure     ErrorKind = "encoding_failure"
	KindUploadFailure       ErrorKind = "upload_failure"
	KindDownloadFailure     ErrorKind = "download_failure"
	KindMissingInput        ErrorKind = "missing_input"
	KindUnknown             ErrorKind = "unknown"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		return fmt.Errorf("%s: %w", detail, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind classifies err by the first marker it carries.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidArtifactKind):
		return KindInvalidArtifactKind
	case errors.Is(err, ErrDuplicateArtifact):
		return KindDuplicateArtifact
	case errors.Is(err, ErrFontResolution):
		return KindFontResolution
	case errors.Is(err, ErrEncodingFailure):
		return KindEncodingFailure
	case errors.Is(err, ErrUploadFailure):
		return KindUploadFailure
	case errors.Is(err, ErrDownloadFailure):
		return KindDownloadFailure
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	default:
		return KindUnknown
	}
}

// IsTerminal reports whether err ends a session. Artifact rejections and
// failed downloads are recovered locally and never terminal.
func IsTerminal(err error) bool {
	switch Kind(err) {
	case KindNone, KindInvalidArtifactKind, KindDuplicateArtifact, KindDownloadFailure:
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// MaxUserMessageBytes keeps a notice under the Bot API's 4096 character
// message limit.
const MaxUserMessageBytes = 4000

// UserMessage renders err as the notice sent back to the chat user. The
// underlying error text is included, keeping its end when it is too long.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var prefix string
	switch Kind(err) {
	case KindEncodingFailure:
		prefix = "Encoding failed"
	case KindUploadFailure:
		prefix = "Delivery failed"
	case KindDownloadFailure:
		prefix = "Could not download your file"
	case KindMissingInput:
		prefix = "A required file is missing"
	case KindFontResolution:
		prefix = "The subtitle font could not be loaded"
	default:
		prefix = "An error occurred"
	}
	prefix += ": "
	return prefix + textutil.Tail(err.Error(), MaxUserMessageBytes-len(prefix))
}

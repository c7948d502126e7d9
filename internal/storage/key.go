package storage

import (
	"path"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeName folds a user-supplied file name into a URL-safe object name:
// accents are dropped, anything outside [A-Za-z0-9._-] becomes '-', and
// repeated separators collapse.
func SanitizeName(name string) string {
	folded, _, err := transform.String(stripMarks, strings.TrimSpace(name))
	if err != nil {
		folded = name
	}
	var b strings.Builder
	lastDash := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	cleaned := strings.Trim(b.String(), "-.")
	if cleaned == "" {
		return "video.mp4"
	}
	return cleaned
}

// ObjectKey places an upload under prefix/YYYY/MM/DD/sessionID/name.
func ObjectKey(prefix, sessionID, name string, now time.Time) string {
	parts := make([]string, 0, 4)
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, now.UTC().Format("2006/01/02"))
	if id := strings.TrimSpace(sessionID); id != "" {
		parts = append(parts, SanitizeName(id))
	}
	parts = append(parts, SanitizeName(name))
	return path.Join(parts...)
}

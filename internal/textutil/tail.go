package textutil

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// Tail returns the trimmed end of s in at most limit bytes. A cut result is
// prefixed with "..." (counted in the limit) and always starts on a rune.
func Tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	if limit <= len(ellipsis) {
		return ""
	}
	cut := len(s) - (limit - len(ellipsis))
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return ellipsis + s[cut:]
}

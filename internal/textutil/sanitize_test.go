package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  movie.mp4 ":        "movie.mp4",
		"a/b\\c:d*e.mp4":      "a-b-c-d-e.mp4",
		"what?<>|\".mp4":      "what.mp4",
		"../../etc/passwd":    "-..-etc-passwd",
		"tab\there\x00.mp4":   "tabhere.mp4",
		"":                    "",
		"...":                 "",
		"Épisode 01 (VF).mkv": "Épisode 01 (VF).mkv",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 150) + ".mp4"
	got := SanitizeFileName(long)
	if len(got) > maxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}

func TestTailKeepsEndWithinLimit(t *testing.T) {
	if got := Tail("  short  ", 10); got != "short" {
		t.Fatalf("Tail short = %q", got)
	}
	got := Tail("first line\nlast line", 12)
	if got != "...last line" {
		t.Fatalf("Tail = %q", got)
	}
	if Tail("abcdef", 2) != "" {
		t.Fatal("expected empty tail when limit cannot hold the marker")
	}
}

func TestTailCutsOnRuneBoundary(t *testing.T) {
	s := "error opening '" + strings.Repeat("日本", 40) + "'"
	for limit := 4; limit < len(s); limit++ {
		got := Tail(s, limit)
		if !utf8.ValidString(got) {
			t.Fatalf("Tail(%d) produced invalid UTF-8: %q", limit, got)
		}
		if len(got) > limit {
			t.Fatalf("Tail(%d) = %d bytes", limit, len(got))
		}
	}
}

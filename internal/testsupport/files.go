package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// sampleSRT is a two-cue SubRip file; the second cue contains a colon and
// an apostrophe so filter escaping is exercised by callers that render it.
const sampleSRT = `1
00:00:00,500 --> 00:00:02,000
Hello there

2
00:00:02,500 --> 00:00:04,000
It's 10:30 already
`

// WriteFile creates path and its parents holding size filler bytes. It is
// meant for code that only stats or streams the file. A size <= 0 writes one
// byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	writeAll(t, path, bytes.Repeat([]byte{'x'}, int(size)))
}

// WriteSubtitles writes a small valid .srt file to path.
func WriteSubtitles(t testing.TB, path string) {
	t.Helper()
	writeAll(t, path, []byte(sampleSRT))
}

func writeAll(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

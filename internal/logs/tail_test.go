package logs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"subburn/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subburn.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsTrailingLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")
	page, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(page.Lines) != 2 || page.Lines[0] != "b" || page.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
	if page.Offset != 6 {
		t.Fatalf("expected offset at end of file, got %d", page.Offset)
	}
}

func TestLastSpansChunks(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&b, "line %05d %s\n", i, strings.Repeat("x", 40))
	}
	path := writeLog(t, b.String())
	page, err := logs.Last(path, 3000)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(page.Lines) != 3000 {
		t.Fatalf("expected 3000 lines, got %d", len(page.Lines))
	}
	if !strings.HasPrefix(page.Lines[0], "line 02000 ") || !strings.HasPrefix(page.Lines[2999], "line 04999 ") {
		t.Fatalf("unexpected bounds %q .. %q", page.Lines[0], page.Lines[2999])
	}
}

func TestLastFiltersLines(t *testing.T) {
	path := writeLog(t, "session=a one\nsession=b two\nsession=a three\n")
	page, err := logs.Last(path, 10, "session=a")
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(page.Lines) != 2 || page.Lines[1] != "session=a three" {
		t.Fatalf("unexpected lines: %#v", page.Lines)
	}
}

func TestBlankMatchKeepsAllLines(t *testing.T) {
	path := writeLog(t, "a\nb\n")
	page, err := logs.Last(path, 10, "")
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(page.Lines) != 2 {
		t.Fatalf("blank match should not filter, got %#v", page.Lines)
	}
}

func TestLastMissingFile(t *testing.T) {
	page, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || len(page.Lines) != 0 {
		t.Fatalf("expected empty page, got %#v err=%v", page, err)
	}
}

func TestReadFromKeepsPartialLine(t *testing.T) {
	path := writeLog(t, "done\npart")
	page, err := logs.ReadFrom(path, 0)
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(page.Lines) != 1 || page.Offset != 5 {
		t.Fatalf("unexpected page %#v", page)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, 6, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := file.WriteString("next\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	file.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(got) != 1 || got[0] != "next" {
		t.Fatalf("unexpected lines %#v", got)
	}
}

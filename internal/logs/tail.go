package logs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	chunkSize    = 32 * 1024
	maxLineBytes = 1024 * 1024
	pollInterval = 250 * time.Millisecond
)

// Page is a run of log lines and the byte offset just past them.
type Page struct {
	Lines  []string
	Offset int64
}

// Last returns up to limit trailing lines of path. A missing file yields an
// empty page. Lines containing none of the match substrings are skipped when
// match is non-empty.
func Last(path string, limit int, match ...string) (Page, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Page{}, nil
		}
		return Page{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Page{}, fmt.Errorf("stat log file: %w", err)
	}
	size := info.Size()
	if limit <= 0 {
		return Page{Offset: size}, nil
	}

	// Walk backwards a chunk at a time until enough matching lines are seen.
	var (
		lines []string
		tail  []byte
		pos   = size
	)
	for pos > 0 && len(lines) < limit {
		n := int64(chunkSize)
		if pos < n {
			n = pos
		}
		pos -= n
		buf := make([]byte, n)
		if _, err := file.ReadAt(buf, pos); err != nil && !errors.Is(err, io.EOF) {
			return Page{}, fmt.Errorf("read log file: %w", err)
		}
		buf = append(buf, tail...)
		parts := bytes.Split(buf, []byte{'\n'})
		// The first part may be a partial line unless we reached the start.
		first := 0
		if pos > 0 {
			tail = parts[0]
			first = 1
		} else {
			tail = nil
		}
		for i := len(parts) - 1; i >= first && len(lines) < limit; i-- {
			line := string(parts[i])
			if line == "" || !matches(line, match) {
				continue
			}
			lines = append(lines, line)
		}
	}

	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return Page{Lines: lines, Offset: size}, nil
}

// ReadFrom returns the complete lines written after offset. A truncated file
// restarts from the beginning.
func ReadFrom(path string, offset int64, match ...string) (Page, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Page{}, nil
		}
		return Page{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Page{Offset: offset}, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Page{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}

	page := Page{Offset: offset}
	reader := bufio.NewReaderSize(file, chunkSize)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// Leave a partial final line for the next read.
			break
		}
		page.Offset += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		if line != "" && matches(line, match) {
			page.Lines = append(page.Lines, line)
		}
	}
	return page, nil
}

// Follow calls emit for every line appended after offset until ctx ends.
func Follow(ctx context.Context, path string, offset int64, emit func(string), match ...string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		page, err := ReadFrom(path, offset, match...)
		if err != nil {
			return err
		}
		for _, line := range page.Lines {
			emit(line)
		}
		offset = page.Offset

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// matches treats blank patterns as absent.
func matches(line string, match []string) bool {
	filtered := false
	for _, m := range match {
		if m == "" {
			continue
		}
		filtered = true
		if strings.Contains(line, m) {
			return true
		}
	}
	return !filtered
}

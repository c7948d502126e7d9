package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge reports that a stream exceeded the caller's byte limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// CopyFile streams src to dst with the given mode via WriteAtomic.
func CopyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = WriteAtomic(dst, in, mode, 0)
	return err
}

// WriteAtomic copies r into a temp file next to dst and renames it into place,
// so readers never observe a partially written dst. A maxBytes > 0 aborts the
// copy with ErrTooLarge once more than maxBytes would be written.
func WriteAtomic(dst string, r io.Reader, mode os.FileMode, maxBytes int64) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create parent: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if err != nil {
		return written, err
	}
	if maxBytes > 0 && written > maxBytes {
		return written, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if err := tmp.Chmod(mode); err != nil {
		return written, err
	}
	if err := tmp.Close(); err != nil {
		return written, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return written, fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return written, nil
}

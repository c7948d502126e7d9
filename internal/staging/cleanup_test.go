package staging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"subburn/internal/logging"
)

func makeDir(t *testing.T, parent, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "video.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(dir, stamp, stamp); err != nil {
		t.Fatalf("set time: %v", err)
	}
	return dir
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(dir, time.Hour, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldDir := makeDir(t, tmpDir, "old-session", 2*time.Hour)
	recentDir := makeDir(t, tmpDir, "recent-session", 0)

	result := CleanStale(tmpDir, time.Hour, nil, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleSkipsActiveSessions(t *testing.T) {
	tmpDir := t.TempDir()
	live := makeDir(t, tmpDir, "live", 3*time.Hour)
	dead := makeDir(t, tmpDir, "dead", 3*time.Hour)

	result := CleanStale(tmpDir, time.Hour, map[string]struct{}{"live": {}}, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != dead {
		t.Fatalf("expected only dead session removed, got %v", result.Removed)
	}
	if _, err := os.Stat(live); err != nil {
		t.Fatalf("active session directory removed: %v", err)
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "stray.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-5 * time.Hour)
	_ = os.Chtimes(file, old, old)

	result := CleanStale(tmpDir, time.Hour, nil, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("files must not be removed, got %v", result.Removed)
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	makeDir(t, tmpDir, "a", 0)
	makeDir(t, tmpDir, "b", 0)

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(dirs))
	}
	for _, d := range dirs {
		if d.Size != 4 {
			t.Fatalf("expected size 4 for %s, got %d", d.Name, d.Size)
		}
	}

	missing, err := ListDirectories(filepath.Join(tmpDir, "absent"))
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing dir, got %v %v", missing, err)
	}
}

package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneRunLogs removes per-run log files in logDir whose modification time is
// more than retentionDays old and returns how many were removed. current is
// never removed, and retentionDays <= 0 disables pruning.
func PruneRunLogs(logger *slog.Logger, logDir string, retentionDays int, current string) int {
	if retentionDays <= 0 || logDir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(logDir, RunLogPrefix+"*.log"))
	if err != nil {
		return 0
	}
	keep := absPath(current)
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range matches {
		if current != "" && absPath(path) == keep {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and log_dir ownership"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

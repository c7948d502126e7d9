package daemon

import (
	"context"
	"time"

	"subburn/internal/logging"
	"subburn/internal/staging"
)

type janitorStats struct {
	last    time.Time
	removed int
}

// runJanitor sweeps once at startup, which catches directories left by a
// crashed run, then on every janitor interval.
func (d *Daemon) runJanitor(ctx context.Context) {
	interval := time.Duration(d.cfg.Janitor.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	d.sweep()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

func (d *Daemon) sweep() {
	maxAge := time.Duration(d.cfg.Janitor.StaleAfterMinutes) * time.Minute
	result := staging.CleanStale(d.cfg.SessionsDir(), maxAge, d.deps.Sessions.ActiveSessionIDs(), d.logger)
	pruned := logging.PruneRunLogs(d.logger, d.cfg.Paths.LogDir, d.cfg.Logging.RetentionDays, d.deps.LogPath)
	if len(result.Removed) > 0 || len(result.Errors) > 0 || pruned > 0 {
		d.logger.Info("janitor sweep finished",
			logging.Int("removed", len(result.Removed)),
			logging.Int("errors", len(result.Errors)),
			logging.Int("logs_pruned", pruned),
			logging.String(logging.FieldEventType, "janitor_swept"),
		)
	}

	d.mu.Lock()
	d.janitor.last = time.Now()
	d.janitor.removed += len(result.Removed)
	d.mu.Unlock()
}

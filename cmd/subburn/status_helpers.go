package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"subburn/internal/config"
	"subburn/internal/history"
	"subburn/internal/ipc"
	"subburn/internal/logging"
	"subburn/internal/preflight"
	"subburn/internal/session"
	"subburn/internal/storage"
)

func runningLines(resp *ipc.StatusResponse, colorize bool) []string {
	lines := []string{
		renderStatusLine("Bot", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID), colorize),
	}
	if resp.Username != "" {
		lines = append(lines, renderStatusLine("Telegram", statusOK, "@"+resp.Username, colorize))
	}
	if !resp.StartedAt.IsZero() {
		uptime := time.Since(resp.StartedAt).Truncate(time.Second)
		lines = append(lines, renderStatusLine("Uptime", statusInfo, uptime.String(), colorize))
	}
	lines = append(lines,
		renderStatusLine("Delivery", statusInfo, session.DeliveryModeLabel(resp.DeliveryMode), colorize),
		renderStatusLine("Font", statusInfo, resp.FontName, colorize),
	)
	if resp.HistoryPath != "" {
		detail := fmt.Sprintf("%d completed, %d failed", resp.Completed, resp.Failed)
		lines = append(lines, renderStatusLine("History", statusInfo, detail, colorize))
	}
	if !resp.LastSweep.IsZero() {
		detail := fmt.Sprintf("%s (%d removed)", resp.LastSweep.Local().Format("15:04:05"), resp.SweptDirs)
		lines = append(lines, renderStatusLine("Last sweep", statusInfo, detail, colorize))
	}
	if resp.LogPath != "" {
		lines = append(lines, renderStatusLine("Log", statusInfo, resp.LogPath, colorize))
	}
	return lines
}

func sessionRows(sessions []ipc.SessionInfo, now time.Time) [][]string {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			shortSessionID(s.ID),
			strconv.FormatInt(s.UserID, 10),
			session.State(s.State).Label(),
			orDash(s.VideoName),
			orDash(s.Subtitle),
			formatAge(now.Sub(s.CreatedAt)),
		})
	}
	return rows
}

func systemCheckLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	if cfg == nil {
		return []string{renderStatusLine("Config", statusError, "not loaded", colorize)}
	}
	var bucket preflight.BucketChecker
	if cfg.Delivery.Mode == config.DeliveryLink {
		store, err := storage.New(cfg.Storage, logging.NewNop())
		if err != nil {
			return []string{renderStatusLine("Object store", statusError, err.Error(), colorize)}
		}
		bucket = store
	}
	results := preflight.RunAll(ctx, cfg, bucket)
	lines := make([]string, 0, len(results)+1)
	if err := cfg.ValidateStartup(); err != nil {
		lines = append(lines, renderStatusLine("Startup config", statusError, err.Error(), colorize))
	}
	for _, result := range results {
		kind := statusOK
		if !result.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(result.Name, kind, result.Detail, colorize))
	}
	return lines
}

func dependencyLines(cfg *config.Config, colorize bool) []string {
	statuses := preflight.CheckSystemDeps(cfg)
	lines := make([]string, 0, len(statuses)+1)
	var missing []string
	for _, dep := range statuses {
		if dep.Available {
			lines = append(lines, renderStatusLine(dep.Name, statusOK, fmt.Sprintf("Ready (command: %s)", dep.Command), colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
		missing = append(missing, dep.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func historyLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	if cfg == nil || !cfg.History.Enabled {
		return []string{renderStatusLine("Ledger", statusInfo, "disabled", colorize)}
	}
	store, err := openExistingHistory(cfg)
	if err != nil {
		return []string{renderStatusLine("Ledger", statusWarn, err.Error(), colorize)}
	}
	if store == nil {
		return []string{renderStatusLine("Ledger", statusInfo, "no sessions recorded yet", colorize)}
	}
	defer store.Close()
	summary, err := store.Summarize(ctx)
	if err != nil {
		return []string{renderStatusLine("Ledger", statusWarn, err.Error(), colorize)}
	}
	lines := []string{
		renderStatusLine("Completed", statusOK, strconv.Itoa(summary.Completed), colorize),
		renderStatusLine("Failed", failedKind(summary.Failed), strconv.Itoa(summary.Failed), colorize),
	}
	if !summary.LastAt.IsZero() {
		lines = append(lines, renderStatusLine("Last session", statusInfo, summary.LastAt.Local().Format(time.DateTime), colorize))
	}
	return lines
}

// openExistingHistory returns nil without error when the ledger was never
// created, so read-only commands do not leave an empty database behind.
func openExistingHistory(cfg *config.Config) (*history.Store, error) {
	path := cfg.HistoryDBPath()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat history: %w", err)
	}
	return history.Open(path)
}

func failedKind(count int) statusKind {
	if count > 0 {
		return statusWarn
	}
	return statusOK
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

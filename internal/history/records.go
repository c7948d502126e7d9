package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// timeLayout has fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Outcome is the terminal state a session concluded in.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Entry is one concluded session.
type Entry struct {
	SessionID    string
	UserID       int64
	Outcome      Outcome
	ErrorKind    string
	ErrorMessage string
	VideoName    string
	SubtitleName string
	DeliveryMode string
	Link         string
	OutputBytes  int64
	RenderTime   time.Duration
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration is the wall time from session creation to conclusion.
func (e Entry) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	UserID  int64
	Outcome Outcome
	Limit   int
}

// Summary aggregates ledger rows for status output.
type Summary struct {
	Completed int
	Failed    int
	LastAt    time.Time
}

// Record inserts a concluded session.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.SessionID) == "" {
		return fmt.Errorf("history: session id empty")
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = entry.FinishedAt
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (
			session_id, user_id, outcome, error_kind, error_message,
			video_name, subtitle_name, delivery_mode, link,
			output_bytes, render_ms, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.SessionID,
			entry.UserID,
			string(entry.Outcome),
			entry.ErrorKind,
			entry.ErrorMessage,
			entry.VideoName,
			entry.SubtitleName,
			entry.DeliveryMode,
			entry.Link,
			entry.OutputBytes,
			entry.RenderTime.Milliseconds(),
			entry.StartedAt.UTC().Format(timeLayout),
			entry.FinishedAt.UTC().Format(timeLayout),
		)
		if err != nil {
			return fmt.Errorf("insert session %s: %w", entry.SessionID, err)
		}
		return nil
	})
}

// List returns concluded sessions, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT session_id, user_id, outcome, error_kind, error_message,
		video_name, subtitle_name, delivery_mode, link, output_bytes, render_ms,
		started_at, finished_at FROM sessions`)
	var (
		clauses []string
		args    []any
	)
	if filter.UserID != 0 {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}
	query.WriteString(" ORDER BY finished_at DESC, id DESC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Summarize counts outcomes across the whole ledger.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var (
		summary Summary
		last    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN outcome = 'completed' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN outcome = 'failed' THEN 1 ELSE 0 END), 0),
		MAX(finished_at)
		FROM sessions`).Scan(&summary.Completed, &summary.Failed, &last)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize sessions: %w", err)
	}
	if last.Valid {
		summary.LastAt = parseTime(last.String)
	}
	return summary, nil
}

// Prune deletes rows that concluded before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE finished_at < ?", cutoff.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("prune sessions: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry     Entry
		outcome   string
		renderMS  int64
		startedAt string
		finished  string
	)
	if err := row.Scan(
		&entry.SessionID,
		&entry.UserID,
		&outcome,
		&entry.ErrorKind,
		&entry.ErrorMessage,
		&entry.VideoName,
		&entry.SubtitleName,
		&entry.DeliveryMode,
		&entry.Link,
		&entry.OutputBytes,
		&renderMS,
		&startedAt,
		&finished,
	); err != nil {
		return Entry{}, fmt.Errorf("scan session: %w", err)
	}
	entry.Outcome = Outcome(outcome)
	entry.RenderTime = time.Duration(renderMS) * time.Millisecond
	entry.StartedAt = parseTime(startedAt)
	entry.FinishedAt = parseTime(finished)
	return entry, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

package ipc

import "time"

// StatusRequest fetches bot status.
type StatusRequest struct{}

// SessionInfo is one live session on the wire.
type SessionInfo struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	State     string    `json:"state"`
	VideoName string    `json:"video_name"`
	Subtitle  string    `json:"subtitle_name"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusResponse represents combined daemon and session status.
type StatusResponse struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	StartedAt    time.Time     `json:"started_at"`
	Username     string        `json:"username"`
	DeliveryMode string        `json:"delivery_mode"`
	FontName     string        `json:"font_name"`
	LockPath     string        `json:"lock_path"`
	LogPath      string        `json:"log_path"`
	HistoryPath  string        `json:"history_path"`
	Sessions     []SessionInfo `json:"sessions"`
	Completed    int           `json:"completed"`
	Failed       int           `json:"failed"`
	LastSweep    time.Time     `json:"last_sweep"`
	SweptDirs    int           `json:"swept_dirs"`
}

// LogTailRequest fetches log lines. A negative Offset returns the last Limit
// lines; otherwise lines written after Offset are returned.
type LogTailRequest struct {
	Offset int64  `json:"offset"`
	Limit  int    `json:"limit"`
	Match  string `json:"match"`
}

// LogTailResponse returns log lines and the next offset.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

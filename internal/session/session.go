package session

import (
	"path/filepath"
	"sync"
	"time"
)

// Session is one user's pass through the workflow. All fields are guarded by
// mu; a Session is never reused once done is set.
type Session struct {
	mu sync.Mutex

	id        string
	chatID    int64
	dir       string
	createdAt time.Time

	state        State
	videoPath    string
	subtitlePath string
	outputPath   string
	videoName    string
	subtitleName string

	// fetching marks a slot whose download is in flight with mu released.
	fetching map[ArtifactKind]bool
	done     bool
	purged   bool
}

func newSession(id string, chatID int64, sessionsDir string, now time.Time) *Session {
	return &Session{
		id:        id,
		chatID:    chatID,
		dir:       filepath.Join(sessionsDir, id),
		createdAt: now,
		state:     StateIdle,
		fetching:  make(map[ArtifactKind]bool, 2),
	}
}

// Snapshot is a copy of a session's fields, safe to read without locks.
type Snapshot struct {
	ID           string
	ChatID       int64
	Dir          string
	State        State
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	VideoName    string
	SubtitleName string
	CreatedAt    time.Time
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		ID:           s.id,
		ChatID:       s.chatID,
		Dir:          s.dir,
		State:        s.state,
		VideoPath:    s.videoPath,
		SubtitlePath: s.subtitlePath,
		OutputPath:   s.outputPath,
		VideoName:    s.videoName,
		SubtitleName: s.subtitleName,
		CreatedAt:    s.createdAt,
	}
}

// CheckInvariants verifies the Ready rule: Ready means both inputs are stored
// at distinct paths.
func (s Snapshot) CheckInvariants() bool {
	if s.State != StateReady {
		return true
	}
	return s.VideoPath != "" && s.SubtitlePath != "" && s.VideoPath != s.SubtitlePath
}

func (s *Session) slot(kind ArtifactKind) string {
	if kind == ArtifactVideo {
		return s.videoPath
	}
	return s.subtitlePath
}

func (s *Session) localPath(kind ArtifactKind) string {
	if kind == ArtifactVideo {
		return filepath.Join(s.dir, videoFileName)
	}
	return filepath.Join(s.dir, subtitleFileName)
}

func (s *Session) store(kind ArtifactKind, path, name string) {
	if kind == ArtifactVideo {
		s.videoPath, s.videoName = path, name
		return
	}
	s.subtitlePath, s.subtitleName = path, name
}

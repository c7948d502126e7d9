package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"subburn/internal/delivery"
	"subburn/internal/history"
	"subburn/internal/logging"
	"subburn/internal/notifications"
	"subburn/internal/render"
	"subburn/internal/services"
)

// Document is an inbound file as the transport exposes it: a declared name
// and a way to fetch the bytes.
type Document interface {
	FileName() string
	Fetch(ctx context.Context, dst string) error
}

// Notifier sends plain-text notices to a chat.
type Notifier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Renderer burns subtitles into a video.
type Renderer interface {
	Render(ctx context.Context, inv render.Invocation) (render.Output, error)
}

// Recorder persists concluded sessions.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) error
}

// Deps wires a Manager to its collaborators. History and Alerts are optional.
type Deps struct {
	SessionsDir string
	Style       render.Style
	Renderer    Renderer
	Deliverer   delivery.Deliverer
	// DeliveryMode picks the wording of the post-render notice.
	DeliveryMode string
	Notifier     Notifier
	History      Recorder
	Alerts       notifications.Service
	Logger       *slog.Logger
}

// Manager maps chats to their current Session.
type Manager struct {
	deps   Deps
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*Session

	now      func() time.Time
	newID    func() string
	observer func(Snapshot)
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithObserver registers fn to receive a snapshot after every state change.
// fn runs with the session lock held and must not call back into Manager.
func WithObserver(fn func(Snapshot)) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

// NewManager validates deps and returns an empty Manager.
func NewManager(deps Deps, opts ...Option) (*Manager, error) {
	switch {
	case strings.TrimSpace(deps.SessionsDir) == "":
		return nil, errors.New("session: sessions directory not configured")
	case deps.Renderer == nil:
		return nil, errors.New("session: renderer is required")
	case deps.Deliverer == nil:
		return nil, errors.New("session: deliverer is required")
	case deps.Notifier == nil:
		return nil, errors.New("session: notifier is required")
	}
	if err := deps.Style.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	m := &Manager{
		deps:     deps,
		logger:   logging.NewComponentLogger(deps.Logger, "session"),
		sessions: make(map[int64]*Session),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Snapshot returns the chat's current session, if one exists.
func (m *Manager) Snapshot(chatID int64) (Snapshot, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[chatID]
	m.mu.Unlock()
	if !ok {
		return Snapshot{ChatID: chatID, State: StateIdle}, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(), true
}

// ActiveSessionIDs lists the directory names of live sessions.
func (m *Manager) ActiveSessionIDs() map[string]struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]struct{}, len(m.sessions))
	for _, sess := range m.sessions {
		ids[sess.id] = struct{}{}
	}
	return ids
}

// Snapshots returns every live session, oldest first.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		live = append(live, sess)
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(live))
	for _, sess := range live {
		sess.mu.Lock()
		if !sess.done {
			out = append(out, sess.snapshot())
		}
		sess.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// lock returns the chat's live session with its mutex held, creating one when
// needed. A session that concluded between lookup and lock is skipped.
func (m *Manager) lock(chatID int64) *Session {
	for {
		m.mu.Lock()
		sess, ok := m.sessions[chatID]
		if !ok {
			sess = newSession(m.newID(), chatID, m.deps.SessionsDir, m.now())
			m.sessions[chatID] = sess
		}
		m.mu.Unlock()

		sess.mu.Lock()
		if !sess.done {
			return sess
		}
		sess.mu.Unlock()
	}
}

// transition applies to and reports the change. Caller holds sess.mu.
func (m *Manager) transition(sess *Session, to State) error {
	if !isValidTransition(sess.state, to) {
		return transitionError(sess.state, to)
	}
	sess.state = to
	snap := sess.snapshot()
	if to == StateReady && !snap.CheckInvariants() {
		return services.Wrap(services.ErrMissingInput, string(StateReady), "", "ready without both inputs", nil)
	}
	if m.observer != nil {
		m.observer(snap)
	}
	return nil
}

// conclude moves sess to a terminal state, drops it from the registry, and
// purges its files. Caller holds sess.mu. Files are removed once even if
// conclude is reached twice.
func (m *Manager) conclude(sess *Session, to State) {
	if sess.done {
		return
	}
	if isValidTransition(sess.state, to) {
		sess.state = to
	} else {
		// Guard failures can arrive from any non-terminal state.
		sess.state = StateFailed
	}
	sess.done = true

	m.mu.Lock()
	if current, ok := m.sessions[sess.chatID]; ok && current == sess {
		delete(m.sessions, sess.chatID)
	}
	m.mu.Unlock()

	if !sess.purged {
		sess.purged = true
		if err := os.RemoveAll(sess.dir); err != nil {
			logging.WarnWithContext(m.logger, "session purge failed", "session_purge_failed",
				logging.String(logging.FieldSessionID, sess.id),
				logging.String("path", sess.dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "janitor will retry removal later"),
			)
		}
	}
	if m.observer != nil {
		m.observer(sess.snapshot())
	}
}

func (m *Manager) notify(ctx context.Context, chatID int64, text string) {
	if err := m.deps.Notifier.SendText(ctx, chatID, text); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, m.logger), "notice not delivered", "notice_send_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "user did not see a status message"),
		)
	}
}

func sessionContext(ctx context.Context, sess *Session, stage State) context.Context {
	ctx = services.WithUserID(ctx, sess.chatID)
	ctx = services.WithSessionID(ctx, sess.id)
	return services.WithStage(ctx, string(stage))
}

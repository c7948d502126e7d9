package daemon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"subburn/internal/config"
	"subburn/internal/history"
	"subburn/internal/logging"
	"subburn/internal/notifications"
	"subburn/internal/session"
)

// Runner is a blocking loop that returns once ctx is cancelled.
type Runner interface {
	Run(ctx context.Context) error
}

// Summarizer reports history totals for status output.
type Summarizer interface {
	Summarize(ctx context.Context) (history.Summary, error)
	Path() string
}

// Deps are the collaborators the daemon coordinates. History and Alerts may
// be nil.
type Deps struct {
	Sessions *session.Manager
	Poller   Runner
	History  Summarizer
	Alerts   notifications.Service
	// Username is the bot's @name, reported in status and start alerts.
	Username string
	FontName string
	LogPath  string
	// Lock, when set, is an instance lock the caller already holds. The
	// daemon then skips acquiring one and leaves releasing it to the caller.
	Lock *InstanceLock
}

// Daemon runs the bot and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	lockPath string

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	janitor   janitorStats
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StartedAt    time.Time
	Username     string
	DeliveryMode string
	FontName     string
	LockPath     string
	LogPath      string
	HistoryPath  string
	Sessions     []session.Snapshot
	History      history.Summary
	LastSweep    time.Time
	SweptDirs    int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Sessions == nil || deps.Poller == nil {
		return nil, errors.New("daemon requires config, session manager, and poller")
	}
	if deps.Alerts == nil {
		deps.Alerts = notifications.NewService(cfg)
	}
	lockPath := cfg.LockPath()
	if deps.Lock != nil {
		lockPath = deps.Lock.Path()
	}
	return &Daemon{
		cfg:      cfg,
		deps:     deps,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: lockPath,
	}, nil
}

// Run acquires the instance lock and polls until ctx is cancelled or the
// poller fails.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	if d.deps.Lock == nil {
		lock, err := AcquireLock(d.lockPath)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				d.logger.Warn("failed to release daemon lock", logging.Error(err))
			}
		}()
	}

	d.mu.Lock()
	d.startedAt = time.Now()
	d.mu.Unlock()

	d.logger.Info("subburn started",
		logging.String("lock", d.lockPath),
		logging.String("bot", d.deps.Username),
		logging.String("delivery_mode", d.cfg.Delivery.Mode),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	d.publish(ctx, notifications.EventBotStarted, notifications.Payload{
		"username": d.deps.Username,
		"mode":     d.cfg.Delivery.Mode,
	})

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return d.deps.Poller.Run(groupCtx)
	})
	group.Go(func() error {
		d.runJanitor(groupCtx)
		return nil
	})
	err := group.Wait()

	d.logger.Info("subburn stopped",
		logging.Int("live_sessions", d.deps.Sessions.Len()),
		logging.String(logging.FieldEventType, "daemon_stopped"),
	)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Running reports whether Run is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	started := d.startedAt
	sweep := d.janitor
	d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    started,
		Username:     d.deps.Username,
		DeliveryMode: d.cfg.Delivery.Mode,
		FontName:     d.deps.FontName,
		LockPath:     d.lockPath,
		LogPath:      d.deps.LogPath,
		Sessions:     d.deps.Sessions.Snapshots(),
		LastSweep:    sweep.last,
		SweptDirs:    sweep.removed,
	}
	if d.deps.History != nil {
		status.HistoryPath = d.deps.History.Path()
		summary, err := d.deps.History.Summarize(ctx)
		if err != nil {
			d.logger.Warn("history summary unavailable", logging.Error(err))
		} else {
			status.History = summary
		}
	}
	return status
}

// TestNotification sends a test alert using the configured topic.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.deps.Alerts.Publish(ctx, notifications.EventTestNotification, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

func (d *Daemon) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.deps.Alerts.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(d.logger, "operator notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not alerted"),
		)
	}
}

package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subburn/internal/config"
	"subburn/internal/daemon"
	"subburn/internal/delivery"
	"subburn/internal/logging"
	"subburn/internal/notifications"
	"subburn/internal/render"
	"subburn/internal/session"
	"subburn/internal/testsupport"
)

type blockingPoller struct {
	started chan struct{}
}

func (p *blockingPoller) Run(ctx context.Context) error {
	close(p.started)
	<-ctx.Done()
	return nil
}

type nopRenderer struct{}

func (nopRenderer) Render(context.Context, render.Invocation) (render.Output, error) {
	return render.Output{}, nil
}

type nopDeliverer struct{}

func (nopDeliverer) Deliver(context.Context, delivery.Request) (delivery.Result, error) {
	return delivery.Result{}, nil
}

type nopNotifier struct{}

func (nopNotifier) SendText(context.Context, int64, string) error { return nil }

type recordingAlerts struct {
	events chan notifications.Event
}

func (a *recordingAlerts) Publish(_ context.Context, event notifications.Event, _ notifications.Payload) error {
	a.events <- event
	return nil
}

func newDaemon(t *testing.T) (*daemon.Daemon, *blockingPoller, *recordingAlerts, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	d, poller, alerts := newDaemonWithConfig(t, cfg)
	return d, poller, alerts, cfg.SessionsDir()
}

func newDaemonWithConfig(t *testing.T, cfg *config.Config) (*daemon.Daemon, *blockingPoller, *recordingAlerts) {
	t.Helper()
	manager, err := session.NewManager(session.Deps{
		SessionsDir: cfg.SessionsDir(),
		Style:       render.Style{FontName: "Go", FontSize: 24, Alignment: 2},
		Renderer:    nopRenderer{},
		Deliverer:   nopDeliverer{},
		Notifier:    nopNotifier{},
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	poller := &blockingPoller{started: make(chan struct{})}
	alerts := &recordingAlerts{events: make(chan notifications.Event, 4)}
	d, err := daemon.New(cfg, daemon.Deps{
		Sessions: manager,
		Poller:   poller,
		Alerts:   alerts,
		Username: "subburn_bot",
		FontName: "Go",
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, poller, alerts
}

func TestDaemonRunStop(t *testing.T) {
	d, poller, alerts, sessionsDir := newDaemon(t)

	stale := filepath.Join(sessionsDir, "abandoned")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-poller.started:
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not start")
	}
	if event := <-alerts.events; event != notifications.EventBotStarted {
		t.Fatalf("expected start alert, got %s", event)
	}

	status := d.Status(ctx)
	if !status.Running || status.Username != "subburn_bot" || status.PID != os.Getpid() {
		t.Fatalf("unexpected status %+v", status)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(stale); os.IsNotExist(err) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("expected janitor to remove the stale session directory")
	}

	// A second run must not start while the first is active.
	if err := d.Run(ctx); err == nil {
		t.Fatal("expected second run to fail")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if d.Running() {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	first, poller, _ := newDaemonWithConfig(t, cfg)
	second, _, _ := newDaemonWithConfig(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- first.Run(ctx) }()
	<-poller.started

	err := second.Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "another subburn instance") {
		t.Fatalf("expected lock conflict, got %v", err)
	}

	cancel()
	<-done
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	d, _, _, _ := newDaemon(t)
	sent, msg, err := d.TestNotification(context.Background())
	if err != nil || sent || msg != "ntfy topic not configured" {
		t.Fatalf("unexpected result sent=%v msg=%q err=%v", sent, msg, err)
	}
}

func TestAcquireLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subburn.lock")
	held, err := daemon.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if _, err := daemon.AcquireLock(path); err == nil || !strings.Contains(err.Error(), "another subburn instance") {
		t.Fatalf("expected lock conflict, got %v", err)
	}
	if err := held.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := daemon.AcquireLock(path)
	if err != nil {
		t.Fatalf("AcquireLock after release: %v", err)
	}
	_ = again.Release()
}

func TestDaemonRunUsesCallerLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	manager, err := session.NewManager(session.Deps{
		SessionsDir: cfg.SessionsDir(),
		Style:       render.Style{FontName: "Go", FontSize: 24, Alignment: 2},
		Renderer:    nopRenderer{},
		Deliverer:   nopDeliverer{},
		Notifier:    nopNotifier{},
		Logger:      logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	poller := &blockingPoller{started: make(chan struct{})}
	d, err := daemon.New(cfg, daemon.Deps{
		Sessions: manager,
		Poller:   poller,
		Alerts:   &recordingAlerts{events: make(chan notifications.Event, 4)},
		Lock:     lock,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	<-poller.started
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The caller still owns the lock after Run returns.
	if _, err := daemon.AcquireLock(cfg.LockPath()); err == nil {
		t.Fatal("expected caller lock to survive Run")
	}
}

package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"subburn/internal/daemon"
	"subburn/internal/history"
	"subburn/internal/session"
	"subburn/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Delivery mode: inline")

	out, _, err = runCLI(t, []string{"config", "validate", "--strict"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate --strict: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.socketPath, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestStatusWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR] Not running")
	requireContains(t, out, "System Checks")
	requireContains(t, out, "Work directory:")
	requireContains(t, out, "Dependencies")
	requireContains(t, out, "History")
	requireContains(t, out, "no sessions recorded yet")
}

func TestStatusLinkModeChecksBucket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	env := setupCLITestEnv(t, testsupport.WithLinkDelivery(strings.TrimPrefix(srv.URL, "http://"), "videos"))

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Storage bucket:")
	requireContains(t, out, "[ERROR] videos (error:")
}

func TestStatusWithRunningBot(t *testing.T) {
	env := setupCLITestEnv(t)
	created := time.Now().Add(-90 * time.Second)
	startFakeBot(t, env.socketPath, &fakeBackend{status: daemon.Status{
		Running:      true,
		PID:          4242,
		StartedAt:    time.Now().Add(-time.Hour),
		Username:     "burn_bot",
		DeliveryMode: "link",
		FontName:     "Go",
		HistoryPath:  env.cfg.HistoryDBPath(),
		History:      history.Summary{Completed: 3, Failed: 1},
		Sessions: []session.Snapshot{{
			ID:        "0123456789abcdef",
			ChatID:    77,
			State:     session.StateAwaitingSubtitle,
			VideoName: "clip.mp4",
			CreatedAt: created,
		}},
	}})

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid 4242)")
	requireContains(t, out, "@burn_bot")
	requireContains(t, out, "3 completed, 1 failed")
	requireContains(t, out, "01234567")
	requireContains(t, out, "Awaiting Subtitle")
	requireContains(t, out, "clip.mp4")
}

func TestStopWhenNotRunning(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Bot is not running")
}

func TestLogsReadsLocalFile(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "subburn.log")
	content := "one session_id=aaa\ntwo session_id=bbb\nthree session_id=aaa\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "one") || !strings.Contains(out, "two") || !strings.Contains(out, "three") {
		t.Fatalf("unexpected tail:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--session", "aaa"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs --session: %v", err)
	}
	if strings.Contains(out, "two") || !strings.Contains(out, "one") {
		t.Fatalf("session filter not applied:\n%s", out)
	}
}

func TestLogsThroughRunningBot(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(logPath, []byte("alpha\nbeta\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	startFakeBot(t, env.socketPath, &fakeBackend{status: daemon.Status{Running: true, LogPath: logPath}})

	out, _, err := runCLI(t, []string{"logs"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "alpha")
	requireContains(t, out, "beta")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

func TestLogsFollowLocal(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "subburn.log")
	if err := os.WriteFile(logPath, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--socket", env.socketPath, "--config", env.configPath, "logs", "--follow"})
	cmd.SetContext(ctx)
	stdout := &syncBuffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "first") })
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("second\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()
	waitFor(t, 2*time.Second, func() bool { return strings.Contains(stdout.String(), "second") })
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("execute: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("logs --follow did not exit")
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestHistoryListAndPrune(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list (empty): %v", err)
	}
	requireContains(t, out, "No sessions recorded")
	if _, err := os.Stat(env.cfg.HistoryDBPath()); !os.IsNotExist(err) {
		t.Fatalf("listing should not create the ledger, stat err=%v", err)
	}

	store, err := history.Open(env.cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	ctx := context.Background()
	old := time.Now().Add(-60 * 24 * time.Hour)
	entries := []history.Entry{
		{SessionID: "aaaaaaaa-1", UserID: 1, Outcome: history.OutcomeCompleted, VideoName: "a.mp4", DeliveryMode: "inline", StartedAt: old, FinishedAt: old.Add(time.Minute)},
		{SessionID: "bbbbbbbb-2", UserID: 2, Outcome: history.OutcomeFailed, ErrorKind: "render_failure", VideoName: "b.mp4", FinishedAt: time.Now()},
		{SessionID: "cccccccc-3", UserID: 1, Outcome: history.OutcomeCompleted, VideoName: "c.mp4", Link: "https://cdn.example/c.mp4", FinishedAt: time.Now()},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	store.Close()

	out, _, err = runCLI(t, []string{"history", "list", "--failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list --failed: %v", err)
	}
	requireContains(t, out, "bbbbbbbb")
	requireContains(t, out, "render_failure")
	if strings.Contains(out, "cccccccc") {
		t.Fatalf("--failed should hide completed sessions:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"history", "list", "--user", "1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list --user: %v", err)
	}
	requireContains(t, out, "https://cdn.example/c.mp4")
	if strings.Contains(out, "bbbbbbbb") {
		t.Fatalf("--user should hide other users:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"history", "prune", "--older-than", "720h"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 1 session(s)")
}

func TestTestNotifyWithoutBot(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "not configured")

	var (
		mu    sync.Mutex
		title string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		title = r.Header.Get("Title")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env.cfg.Notifications.NtfyTopic = srv.URL + "/subburn"
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	mu.Lock()
	defer mu.Unlock()
	if title != "subburn - Test" {
		t.Fatalf("unexpected ntfy title %q", title)
	}
}

func TestTestNotifyThroughBot(t *testing.T) {
	env := setupCLITestEnv(t)
	startFakeBot(t, env.socketPath, &fakeBackend{status: daemon.Status{Running: true}})
	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "test notification sent")
}

func TestFontCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	bin := filepath.Join(testsupport.BaseDir(env.cfg), "fontbin")
	fontDir := filepath.Join(t.TempDir(), "fonts")
	// fc-list reports whatever font files sit in fontDir.
	testsupport.WriteScript(t, bin, "fc-list", "#!/bin/sh\nls -1 "+fontDir+" 2>/dev/null\nexit 0\n")
	testsupport.WriteScript(t, bin, "fc-cache", "#!/bin/sh\nexit 0\n")
	testsupport.PrependPath(t, bin)

	out, _, err := runCLI(t, []string{"font"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("font: %v", err)
	}
	requireContains(t, out, "Family: Go")
	requireContains(t, out, "Indexed by fontconfig: no")

	out, _, err = runCLI(t, []string{"font", "install", "--dir", fontDir}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("font install: %v", err)
	}
	requireContains(t, out, "Copied GoRegular.ttf")
	if _, err := os.Stat(filepath.Join(fontDir, "GoRegular.ttf")); err != nil {
		t.Fatalf("font not copied: %v", err)
	}
	requireContains(t, out, `Font "Go" already indexed`)
}

func TestFontReportsUnknownWhenFontconfigFails(t *testing.T) {
	env := setupCLITestEnv(t)
	bin := filepath.Join(testsupport.BaseDir(env.cfg), "fontbin")
	testsupport.WriteScript(t, bin, "fc-list", "#!/bin/sh\necho 'Fontconfig error: cannot load default config' >&2\nexit 1\n")
	testsupport.PrependPath(t, bin)

	out, _, err := runCLI(t, []string{"font"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("font: %v", err)
	}
	requireContains(t, out, "Family: Go")
	requireContains(t, out, "Indexed by fontconfig: unknown")
}

func TestRunRequiresToken(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Telegram.Token = ""
	writeTestConfig(t, env.configPath, env.cfg)
	_, _, err := runCLI(t, []string{"run"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "telegram.token is required") {
		t.Fatalf("expected token error, got %v", err)
	}
}

// Package daemonctl starts, stops, and inspects a background bot process on
// behalf of the CLI. All coordination goes through the IPC socket; the PID
// comes from the bot's own status response.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"subburn/internal/ipc"
)

// ErrNotRunning reports that no bot answered on the socket.
var ErrNotRunning = errors.New("subburn is not running")

// Launch starts a detached `subburn run` process.
func Launch(executablePath, configPath, logLevel string) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}
	args := []string{"run"}
	if cfg := strings.TrimSpace(configPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(logLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch bot: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for bot")
	}
	return nil, fmt.Errorf("bot failed to start: %w", lastErr)
}

// Start launches the bot unless one already answers on socketPath. It
// reports whether a new process was launched.
func Start(socketPath, executablePath, configPath, logLevel string, waitTimeout time.Duration) (bool, error) {
	if client, err := ipc.Dial(socketPath); err == nil {
		client.Close()
		return false, nil
	}
	if err := Launch(executablePath, configPath, logLevel); err != nil {
		return false, err
	}
	client, err := WaitForClient(socketPath, waitTimeout)
	if err != nil {
		return false, err
	}
	client.Close()
	return true, nil
}

// Status queries a running bot.
func Status(socketPath string) (*ipc.StatusResponse, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return nil, ErrNotRunning
	}
	defer client.Close()
	return client.Status()
}

// StopResult reports how the bot was stopped.
type StopResult struct {
	PID    int
	Forced bool
}

// Stop sends SIGTERM to the running bot and waits up to grace for the socket
// to disappear, then falls back to SIGKILL. In-flight renders are cancelled.
func Stop(socketPath string, grace time.Duration) (StopResult, error) {
	status, err := Status(socketPath)
	if err != nil {
		return StopResult{}, err
	}
	pid := status.PID
	if pid <= 0 {
		return StopResult{}, fmt.Errorf("bot did not report a pid")
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{}, fmt.Errorf("locate bot process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return StopResult{}, fmt.Errorf("signal bot process %d: %w", pid, err)
	}
	if waitForShutdown(socketPath, grace) {
		return StopResult{PID: pid}, nil
	}
	if err := proc.Signal(syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return StopResult{}, fmt.Errorf("kill bot process %d: %w", pid, err)
	}
	// A killed bot cannot remove its socket.
	_ = os.Remove(socketPath)
	return StopResult{PID: pid, Forced: true}, nil
}

func waitForShutdown(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return true
		}
		client.Close()
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"subburn/internal/config"
	"subburn/internal/daemon"
	"subburn/internal/delivery"
	"subburn/internal/fonts"
	"subburn/internal/history"
	"subburn/internal/ipc"
	"subburn/internal/logging"
	"subburn/internal/notifications"
	"subburn/internal/preflight"
	"subburn/internal/render"
	"subburn/internal/session"
	"subburn/internal/storage"
	"subburn/internal/telegram"
)

// Options configures bot process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the bot and blocks until SIGINT/SIGTERM or a fatal poller error.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	// Held before anything touches the socket or the log pointer so a second
	// instance cannot disturb the running one.
	lock, err := daemon.AcquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			fmt.Fprintf(os.Stderr, "warn: release instance lock: %v\n", err)
		}
	}()

	started := time.Now()
	runID := uuid.NewString()
	logPath := logging.RunLogPath(cfg.Paths.LogDir, started)
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		RunID:            runID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update subburn.log link: %v\n", err)
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)
	logDependencySnapshot(logger, cfg)

	var store *storage.Client
	if cfg.Delivery.Mode == config.DeliveryLink {
		store, err = storage.New(cfg.Storage, logger)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}
	}
	var bucket preflight.BucketChecker
	if store != nil {
		bucket = store
	}
	if err := preflight.ValidateStartup(signalCtx, cfg, bucket); err != nil {
		logging.ErrorWithContext(logger, "startup checks failed", "preflight_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'subburn status' for details"),
		)
		return err
	}

	font, err := fonts.NewInstaller(cfg, logger).Ensure(signalCtx, cfg.Style.FontFile)
	if err != nil {
		return fmt.Errorf("resolve font: %w", err)
	}
	style := render.StyleFromConfig(cfg, font.Name)

	var ledger *history.Store
	if cfg.History.Enabled {
		ledger, err = history.Open(cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer ledger.Close()
	}
	alerts := notifications.NewService(cfg)

	bot, err := telegram.New(cfg, logger)
	if err != nil {
		return err
	}
	var uploader delivery.Uploader
	if store != nil {
		uploader = store
	}
	deliverer, err := delivery.New(cfg, bot, uploader, logger)
	if err != nil {
		return err
	}

	sessionDeps := session.Deps{
		SessionsDir:  cfg.SessionsDir(),
		Style:        style,
		Renderer:     render.NewRenderer(cfg, logger),
		Deliverer:    deliverer,
		DeliveryMode: cfg.Delivery.Mode,
		Notifier:     bot,
		Alerts:       alerts,
		Logger:       logger,
	}
	if ledger != nil {
		sessionDeps.History = ledger
	}
	manager, err := session.NewManager(sessionDeps)
	if err != nil {
		return err
	}

	daemonDeps := daemon.Deps{
		Sessions: manager,
		Poller:   telegram.NewPoller(bot, manager, logger),
		Alerts:   alerts,
		Username: bot.Username(),
		FontName: font.Name,
		LogPath:  logPath,
		Lock:     lock,
	}
	if ledger != nil {
		daemonDeps.History = ledger
	}
	d, err := daemon.New(cfg, daemonDeps, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	return d.Run(signalCtx)
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "subburn.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	ffmpeg := cfg.FFmpegBinary()
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("ffmpeg_available", binaryAvailable(ffmpeg)),
		logging.String("ffmpeg_binary", ffmpeg),
		logging.Bool("ffprobe_available", binaryAvailable(cfg.FFmpeg.ProbeBinary)),
		logging.Bool("fc_list_available", binaryAvailable(cfg.FFmpeg.FCListBinary)),
		logging.String("font_file", cfg.Style.FontFile),
		logging.String("delivery_mode", cfg.Delivery.Mode),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}

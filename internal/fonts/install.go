package fonts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"subburn/internal/config"
	"subburn/internal/logging"
)

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// Installer checks the system font index and rebuilds its cache when the burn
// font is missing.
type Installer struct {
	listBinary  string
	cacheBinary string
	run         CommandRunner
	logger      *slog.Logger
}

// Option customizes an Installer.
type Option func(*Installer)

// WithRunner overrides command execution, mainly for tests.
func WithRunner(run CommandRunner) Option {
	return func(i *Installer) {
		if run != nil {
			i.run = run
		}
	}
}

// NewInstaller constructs an Installer using the configured fontconfig tools.
func NewInstaller(cfg *config.Config, logger *slog.Logger, opts ...Option) *Installer {
	inst := &Installer{
		listBinary:  "fc-list",
		cacheBinary: "fc-cache",
		run:         execRunner,
		logger:      logging.NewComponentLogger(logger, "fonts"),
	}
	if cfg != nil {
		if v := strings.TrimSpace(cfg.FFmpeg.FCListBinary); v != "" {
			inst.listBinary = v
		}
		if v := strings.TrimSpace(cfg.FFmpeg.FCCacheBinary); v != "" {
			inst.cacheBinary = v
		}
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Result describes what Ensure found and did.
type Result struct {
	Name      string
	Installed bool
	Rebuilt   bool
}

// Ensure resolves the family name of fontPath and rebuilds the font cache
// when no indexed font file path contains the font's base name.
//
// The check is a substring match on file paths, so an unrelated font whose
// path happens to contain the same base name also counts as installed.
func (i *Installer) Ensure(ctx context.Context, fontPath string) (Result, error) {
	name, err := ResolveName(fontPath)
	if err != nil {
		return Result{}, err
	}
	result := Result{Name: name}

	installed, err := i.IsInstalled(ctx, fontPath)
	if err != nil {
		logging.WarnWithContext(i.logger, "font index query failed; rebuilding cache", "font_index_failed",
			logging.String("binary", i.listBinary),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install fontconfig or set ffmpeg.fc_list_binary"),
			logging.String(logging.FieldImpact, "font cache is rebuilt on every start"),
		)
	}
	result.Installed = installed
	if installed {
		i.logger.Info("burn font already indexed",
			logging.String("font", name),
			logging.String("path", fontPath),
			logging.String(logging.FieldEventType, "font_ready"),
		)
		return result, nil
	}

	if out, err := i.run(ctx, i.cacheBinary, "-f", "-v"); err != nil {
		logging.WarnWithContext(i.logger, "font cache rebuild failed", "font_cache_failed",
			logging.String("binary", i.cacheBinary),
			logging.String("output", lastLine(out)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "copy the font into a fontconfig directory and run fc-cache manually"),
			logging.String(logging.FieldImpact, "burned subtitles may fall back to a default font"),
		)
		return result, nil
	}
	result.Rebuilt = true
	i.logger.Info("font cache rebuilt",
		logging.String("font", name),
		logging.String("path", fontPath),
		logging.String(logging.FieldEventType, "font_cache_rebuilt"),
	)
	return result, nil
}

// IsInstalled reports whether any file listed by fc-list contains the base
// name (without extension) of fontPath.
func (i *Installer) IsInstalled(ctx context.Context, fontPath string) (bool, error) {
	needle := baseName(fontPath)
	if needle == "" {
		return false, nil
	}
	out, err := i.run(ctx, i.listBinary, "--format", "%{file}\n")
	if err != nil {
		return false, fmt.Errorf("list fonts: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), needle) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func baseName(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Delivery modes accepted by delivery.mode.
const (
	DeliveryInline = "inline"
	DeliveryLink   = "link"
)

// Telegram contains bot transport settings.
type Telegram struct {
	Token       string `toml:"token"`
	TokenFile   string `toml:"token_file"`
	PollTimeout int    `toml:"poll_timeout"`
	APIEndpoint string `toml:"api_endpoint"`
	Debug       bool   `toml:"debug"`
}

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
}

// Style describes how burned-in subtitles look. Values are process-wide.
type Style struct {
	FontFile  string `toml:"font_file"`
	FontSize  int    `toml:"font_size"`
	Alignment int    `toml:"alignment"`
	MarginV   int    `toml:"margin_v"`
}

// FFmpeg contains external tool settings for rendering and font discovery.
type FFmpeg struct {
	Binary        string `toml:"binary"`
	ProbeBinary   string `toml:"ffprobe_binary"`
	VideoCodec    string `toml:"video_codec"`
	FCListBinary  string `toml:"fc_list_binary"`
	FCCacheBinary string `toml:"fc_cache_binary"`
}

// Delivery selects how rendered videos are returned to users.
type Delivery struct {
	Mode        string `toml:"mode"`
	MaxInlineMB int    `toml:"max_inline_mb"`
}

// Storage contains S3-compatible object store settings used by link delivery.
type Storage struct {
	Endpoint      string `toml:"endpoint"`
	Bucket        string `toml:"bucket"`
	Region        string `toml:"region"`
	AccessKey     string `toml:"access_key"`
	SecretKey     string `toml:"secret_key"`
	UseSSL        bool   `toml:"use_ssl"`
	PublicBaseURL string `toml:"public_base_url"`
	Prefix        string `toml:"prefix"`
}

// Notifications contains configuration for ntfy operator notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completions    bool   `toml:"completions"`
	Failures       bool   `toml:"failures"`
}

// History controls the SQLite ledger of concluded sessions.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Janitor controls removal of session directories abandoned by a previous run.
type Janitor struct {
	StaleAfterMinutes int `toml:"stale_after_minutes"`
	IntervalMinutes   int `toml:"interval_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for subburn.
//
// Configuration sections by subsystem:
//   - Telegram: bot token and polling
//   - Paths: work and log directories
//   - Style: font file and subtitle placement
//   - FFmpeg: render and font tool binaries
//   - Delivery: inline attachment or upload-and-link
//   - Storage: object store used by link delivery
//   - Notifications: ntfy operator alerts
//   - History: concluded session ledger
//   - Janitor: stale session directory cleanup
//   - Logging: log format, level, and retention
type Config struct {
	Telegram      Telegram      `toml:"telegram"`
	Paths         Paths         `toml:"paths"`
	Style         Style         `toml:"style"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	Delivery      Delivery      `toml:"delivery"`
	Storage       Storage       `toml:"storage"`
	Notifications Notifications `toml:"notifications"`
	History       History       `toml:"history"`
	Janitor       Janitor       `toml:"janitor"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subburn/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subburn.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for bot operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.SessionsDir(), c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionsDir is the parent of all per-session artifact directories.
func (c *Config) SessionsDir() string {
	return filepath.Join(c.Paths.WorkDir, "sessions")
}

// HistoryDBPath returns the SQLite ledger location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkDir, "subburn.lock")
}

// SocketPath returns the IPC socket the running bot listens on.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.WorkDir, "subburn.sock")
}

// FFmpegBinary returns the ffmpeg executable used for rendering.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.FFmpeg.Binary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// MaxInlineBytes converts delivery.max_inline_mb to bytes.
func (c *Config) MaxInlineBytes() int64 {
	return int64(c.Delivery.MaxInlineMB) * 1024 * 1024
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"subburn/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test and
// a real TrueType font on disk. It defaults common fields and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Telegram.Token = "123456:test-token"
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Style.FontFile = filepath.Join(base, "fonts", "GoRegular.ttf")
	WriteFont(t, cfgVal.Style.FontFile)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLinkDelivery switches delivery to object-store links with dummy credentials.
func WithLinkDelivery(endpoint, bucket string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Delivery.Mode = config.DeliveryLink
		b.cfg.Storage.Endpoint = endpoint
		b.cfg.Storage.Bucket = bucket
		b.cfg.Storage.AccessKey = "access"
		b.cfg.Storage.SecretKey = "secret"
		b.cfg.Storage.UseSSL = false
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and the fontconfig tools
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "fc-list", "fc-cache"}
		}
		dir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, dir, name, "#!/bin/sh\nexit 0\n")
		}
		PrependPath(b.t, dir)
	}
}

// WriteScript writes an executable shell script named name into dir and
// returns its path.
func WriteScript(t testing.TB, dir, name, script string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// PrependPath puts dir first on PATH for the duration of the test.
func PrependPath(t testing.TB, dir string) {
	t.Helper()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

// WriteFont writes the Go Regular TrueType font (family "Go") to path.
func WriteFont(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("write font %s: %v", path, err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}

// WithTelegramEndpoint points the bot at a fake Bot API server; serverURL is
// the httptest server root.
func WithTelegramEndpoint(serverURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.APIEndpoint = serverURL + "/bot%s/%s"
	}
}

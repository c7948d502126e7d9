package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/render"
	"subburn/internal/services"
	"subburn/internal/testsupport"
)

var defaultStyle = render.Style{FontName: "Arial", FontSize: 24, Alignment: 2, MarginV: 35}

func TestBuildFilterMatchesExpectedForm(t *testing.T) {
	got := render.BuildFilter("/tmp/x/s.srt", defaultStyle)
	want := "subtitles=/tmp/x/s.srt:force_style='FontName=Arial,FontSize=24,Alignment=2,MarginV=35'"
	if got != want {
		t.Fatalf("BuildFilter =\n  %s\nwant\n  %s", got, want)
	}
}

func TestBuildFilterIsDeterministic(t *testing.T) {
	first := render.BuildFilter("/work/sessions/a/subtitles.srt", defaultStyle)
	for range 5 {
		if again := render.BuildFilter("/work/sessions/a/subtitles.srt", defaultStyle); again != first {
			t.Fatalf("filter changed between calls: %q vs %q", first, again)
		}
	}
}

func TestEscapeSubtitlePathOnlyTouchesColons(t *testing.T) {
	cases := map[string]string{
		`C:/x/s.srt`:         `C\:/x/s.srt`,
		`/a:b:c/s.srt`:       `/a\:b\:c/s.srt`,
		`/plain/path s.srt`:  `/plain/path s.srt`,
		`/quote's,comma.srt`: `/quote's,comma.srt`,
		`/already\:done.srt`: `/already\\:done.srt`,
	}
	for in, want := range cases {
		if got := render.EscapeSubtitlePath(in); got != want {
			t.Fatalf("EscapeSubtitlePath(%q) = %q, want %q", in, got, want)
		}
	}
	filter := render.BuildFilter(`C:/x/s.srt`, defaultStyle)
	if !strings.HasPrefix(filter, `subtitles=C\:/x/s.srt:force_style=`) {
		t.Fatalf("unexpected filter prefix: %s", filter)
	}
}

func TestBuildArgs(t *testing.T) {
	inv := render.Invocation{VideoPath: "in.mp4", SubtitlePath: "s.srt", OutputPath: "out.mp4", Style: defaultStyle}
	got := render.BuildArgs(inv, "")
	want := []string{
		"-hide_banner", "-nostdin", "-y", "-loglevel", "error",
		"-i", "in.mp4",
		"-vf", render.BuildFilter("s.srt", defaultStyle),
		"-c:v", "libx264",
		"-c:a", "copy",
		"out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("BuildArgs = %v, want %v", got, want)
	}
	if args := render.BuildArgs(inv, "libx265"); args[len(args)-4] != "libx265" {
		t.Fatalf("expected custom codec, got %v", args)
	}
}

func TestStyleValidate(t *testing.T) {
	cfg := config.Default()
	if err := render.StyleFromConfig(&cfg, "Go").Validate(); err != nil {
		t.Fatalf("default style invalid: %v", err)
	}
	bad := []render.Style{
		{FontName: "", FontSize: 24, Alignment: 2},
		{FontName: "Go", FontSize: 0, Alignment: 2},
		{FontName: "Go", FontSize: 24, Alignment: 10},
		{FontName: "Go", FontSize: 24, Alignment: 2, MarginV: -1},
	}
	for _, style := range bad {
		if err := style.Validate(); err == nil {
			t.Fatalf("expected validation error for %#v", style)
		}
	}
}

type fixture struct {
	renderer *render.Renderer
	inv      render.Invocation
}

// newFixture installs a stub ffmpeg that runs script and prepares input files.
func newFixture(t *testing.T, script string) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	binDir := filepath.Join(testsupport.BaseDir(cfg), "bin")
	cfg.FFmpeg.Binary = testsupport.WriteScript(t, binDir, "ffmpeg", script)
	cfg.FFmpeg.ProbeBinary = filepath.Join(binDir, "no-ffprobe")

	dir := filepath.Join(cfg.Paths.WorkDir, "sessions", "s1")
	testsupport.WriteFile(t, filepath.Join(dir, "video.mp4"), 128)
	testsupport.WriteSubtitles(t, filepath.Join(dir, "subtitles.srt"))
	return fixture{
		renderer: render.NewRenderer(cfg, logging.NewNop()),
		inv: render.Invocation{
			VideoPath:    filepath.Join(dir, "video.mp4"),
			SubtitlePath: filepath.Join(dir, "subtitles.srt"),
			OutputPath:   filepath.Join(dir, "output.mp4"),
			Style:        defaultStyle,
		},
	}
}

// The output path is the last argument ffmpeg receives.
const writeLastArg = `for last; do :; done
printf 'rendered' > "$last"
`

func TestRenderSuccess(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\n"+writeLastArg+"exit 0\n")

	out, err := f.renderer.Render(context.Background(), f.inv)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Path != f.inv.OutputPath || out.SizeBytes != int64(len("rendered")) {
		t.Fatalf("unexpected output %#v", out)
	}
}

func TestRenderFailureCarriesStderrAndRemovesPartial(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\n"+writeLastArg+"echo 'Invalid data found when processing input' >&2\nexit 1\n")

	_, err := f.renderer.Render(context.Background(), f.inv)
	if !errors.Is(err, services.ErrEncodingFailure) {
		t.Fatalf("expected encoding failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
	if _, statErr := os.Stat(f.inv.OutputPath); !os.IsNotExist(statErr) {
		t.Fatalf("expected partial output removed, stat err=%v", statErr)
	}
}

func TestRenderLongStderrStaysWithinNoticeLimit(t *testing.T) {
	script := "#!/bin/sh\n" +
		"i=0\nwhile [ $i -lt 200 ]; do echo \"[Parsed_subtitles_0] fontselect: failed to find any fallback for 'Café Ünïcode' ($i)\" >&2; i=$((i+1)); done\n" +
		"echo 'Conversion failed!' >&2\nexit 1\n"
	f := newFixture(t, script)

	_, err := f.renderer.Render(context.Background(), f.inv)
	if !errors.Is(err, services.ErrEncodingFailure) {
		t.Fatalf("expected encoding failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Conversion failed!") {
		t.Fatalf("expected last stderr line kept, got %v", err)
	}
	notice := services.UserMessage(err)
	if len(notice) > services.MaxUserMessageBytes || !utf8.ValidString(notice) {
		t.Fatalf("notice of %d bytes (valid=%v) exceeds the message limit", len(notice), utf8.ValidString(notice))
	}
}

func TestRenderExitZeroWithoutOutputFails(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\nexit 0\n")

	_, err := f.renderer.Render(context.Background(), f.inv)
	if !errors.Is(err, services.ErrEncodingFailure) {
		t.Fatalf("expected encoding failure, got %v", err)
	}
}

func TestRenderMissingInput(t *testing.T) {
	f := newFixture(t, "#!/bin/sh\nexit 0\n")

	inv := f.inv
	inv.SubtitlePath = ""
	if _, err := f.renderer.Render(context.Background(), inv); !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input for empty path, got %v", err)
	}

	inv = f.inv
	inv.VideoPath = filepath.Join(t.TempDir(), "absent.mp4")
	if _, err := f.renderer.Render(context.Background(), inv); !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input for absent file, got %v", err)
	}
}

package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/media/ffprobe"
	"subburn/internal/services"
	"subburn/internal/textutil"
)

const stageEncoding = "encoding"

// maxStderrBytes bounds how much ffmpeg stderr is carried in an error.
const maxStderrBytes = 3 << 10

// Output describes a successfully rendered file.
type Output struct {
	Path      string
	SizeBytes int64
	Elapsed   time.Duration
	// Video is zero when ffprobe is unavailable or failed.
	Video ffprobe.VideoInfo
}

// Renderer runs ffmpeg for burn invocations.
type Renderer struct {
	binary      string
	videoCodec  string
	probeBinary string
	logger      *slog.Logger
}

// NewRenderer constructs a Renderer from the ffmpeg section of cfg.
func NewRenderer(cfg *config.Config, logger *slog.Logger) *Renderer {
	r := &Renderer{
		binary:     "ffmpeg",
		videoCodec: "libx264",
		logger:     logging.NewComponentLogger(logger, "render"),
	}
	if cfg != nil {
		r.binary = cfg.FFmpegBinary()
		if codec := strings.TrimSpace(cfg.FFmpeg.VideoCodec); codec != "" {
			r.videoCodec = codec
		}
		r.probeBinary = strings.TrimSpace(cfg.FFmpeg.ProbeBinary)
	}
	return r
}

// Render burns inv.SubtitlePath into inv.VideoPath and writes inv.OutputPath.
// Only exit status 0 counts as success; on any failure the partial output is
// removed and an ErrEncodingFailure carrying ffmpeg's stderr is returned.
func (r *Renderer) Render(ctx context.Context, inv Invocation) (Output, error) {
	if err := checkInputs(inv); err != nil {
		return Output{}, err
	}
	if err := inv.Style.Validate(); err != nil {
		return Output{}, services.Wrap(services.ErrEncodingFailure, stageEncoding, "style", "", err)
	}

	logger := logging.WithContext(ctx, r.logger)
	args := BuildArgs(inv, r.videoCodec)
	logger.Debug("ffmpeg command",
		logging.String("binary", r.binary),
		logging.String("args", strings.Join(args, " ")),
	)

	started := time.Now()
	cmd := exec.CommandContext(ctx, r.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		removePartial(logger, inv.OutputPath)
		detail := textutil.Tail(stderr.String(), maxStderrBytes)
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(err, ctxErr)
		}
		if detail == "" {
			return Output{}, services.Wrap(services.ErrEncodingFailure, stageEncoding, "ffmpeg", "", err)
		}
		return Output{}, services.Wrap(services.ErrEncodingFailure, stageEncoding, "ffmpeg", detail, err)
	}

	info, err := os.Stat(inv.OutputPath)
	if err != nil || info.IsDir() {
		removePartial(logger, inv.OutputPath)
		if err == nil {
			err = fmt.Errorf("%s is a directory", inv.OutputPath)
		}
		return Output{}, services.Wrap(services.ErrEncodingFailure, stageEncoding, "verify output", "ffmpeg exited 0 without output", err)
	}

	out := Output{
		Path:      inv.OutputPath,
		SizeBytes: info.Size(),
		Elapsed:   time.Since(started),
	}
	out.Video = r.probe(ctx, logger, inv.OutputPath)

	logger.Info("render completed",
		logging.String("output", inv.OutputPath),
		logging.Int64("size_bytes", out.SizeBytes),
		logging.Duration("elapsed", out.Elapsed),
		logging.String(logging.FieldEventType, "render_completed"),
	)
	return out, nil
}

func (r *Renderer) probe(ctx context.Context, logger *slog.Logger, path string) ffprobe.VideoInfo {
	if r.probeBinary == "" {
		return ffprobe.VideoInfo{}
	}
	if _, err := exec.LookPath(r.probeBinary); err != nil {
		return ffprobe.VideoInfo{}
	}
	result, err := ffprobe.Inspect(ctx, r.probeBinary, path)
	if err != nil {
		logger.Debug("ffprobe failed; sending without dimensions", logging.Error(err))
		return ffprobe.VideoInfo{}
	}
	video, _ := result.Video()
	return video
}

func checkInputs(inv Invocation) error {
	for _, input := range []struct{ label, path string }{
		{"video path", inv.VideoPath},
		{"subtitle path", inv.SubtitlePath},
		{"output path", inv.OutputPath},
	} {
		if strings.TrimSpace(input.path) == "" {
			return services.Wrap(services.ErrMissingInput, stageEncoding, "", input.label+" empty", nil)
		}
	}
	for _, input := range []string{inv.VideoPath, inv.SubtitlePath} {
		if _, err := os.Stat(input); err != nil {
			return services.Wrap(services.ErrMissingInput, stageEncoding, "stat input", input, err)
		}
	}
	return nil
}

func removePartial(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logger, "partial output removal failed", "render_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "session cleanup will remove it"),
		)
	}
}

package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/render"
	"subburn/internal/services"
	"subburn/internal/textutil"
)

const stageDelivering = "delivering"

// Attachment is an outbound video. DurationSeconds is zero when unknown.
type Attachment struct {
	Path            string
	FileName        string
	Caption         string
	DurationSeconds int
}

// VideoSender sends a video attachment to a chat.
type VideoSender interface {
	SendVideo(ctx context.Context, chatID int64, video Attachment) error
}

// Uploader stores a local file remotely and returns a public link.
type Uploader interface {
	Upload(ctx context.Context, localPath, sessionID, name string) (string, error)
}

// Request identifies what to deliver and to whom.
type Request struct {
	ChatID    int64
	SessionID string
	// FileName is the user's original video name, reused for the result.
	FileName string
	Output   render.Output
}

// Result reports how delivery happened. Link is set only for link delivery
// and must still be sent to the user.
type Result struct {
	Mode string
	Link string
}

// Deliverer returns a rendered output to its user.
type Deliverer interface {
	Deliver(ctx context.Context, req Request) (Result, error)
}

// New selects the strategy named by delivery.mode.
func New(cfg *config.Config, sender VideoSender, uploader Uploader, logger *slog.Logger) (Deliverer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Delivery.Mode)) {
	case "", config.DeliveryInline:
		if sender == nil {
			return nil, fmt.Errorf("delivery: inline mode requires a video sender")
		}
		return NewInline(sender, cfg.MaxInlineBytes(), logger), nil
	case config.DeliveryLink:
		if uploader == nil {
			return nil, fmt.Errorf("delivery: link mode requires an uploader")
		}
		return NewLink(uploader, logger), nil
	default:
		return nil, fmt.Errorf("delivery: unsupported mode %q", cfg.Delivery.Mode)
	}
}

// Inline sends the rendered file back through the chat transport.
type Inline struct {
	sender   VideoSender
	maxBytes int64
	logger   *slog.Logger
}

// NewInline constructs an inline deliverer; maxBytes <= 0 disables the size check.
func NewInline(sender VideoSender, maxBytes int64, logger *slog.Logger) *Inline {
	return &Inline{sender: sender, maxBytes: maxBytes, logger: logging.NewComponentLogger(logger, "delivery")}
}

// Deliver sends req.Output as a video attachment.
func (d *Inline) Deliver(ctx context.Context, req Request) (Result, error) {
	size, err := outputSize(req.Output)
	if err != nil {
		return Result{}, services.Wrap(services.ErrUploadFailure, stageDelivering, "inline", "", err)
	}
	if d.maxBytes > 0 && size > d.maxBytes {
		return Result{}, services.Wrap(services.ErrUploadFailure, stageDelivering, "inline",
			fmt.Sprintf("rendered video is %s, above the %s inline limit", formatMB(size), formatMB(d.maxBytes)), nil)
	}

	video := req.Output.Video
	attachment := Attachment{
		Path:            req.Output.Path,
		FileName:        resultName(req.FileName),
		DurationSeconds: video.DurationSeconds,
	}
	if err := d.sender.SendVideo(ctx, req.ChatID, attachment); err != nil {
		return Result{}, services.Wrap(services.ErrUploadFailure, stageDelivering, "inline", "send video", err)
	}
	logging.WithContext(ctx, d.logger).Info("video delivered inline",
		logging.Int64("size_bytes", size),
		logging.String(logging.FieldEventType, "delivered_inline"),
	)
	return Result{Mode: config.DeliveryInline}, nil
}

// Link uploads the rendered file and hands back a public link.
type Link struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewLink constructs a link deliverer.
func NewLink(uploader Uploader, logger *slog.Logger) *Link {
	return &Link{uploader: uploader, logger: logging.NewComponentLogger(logger, "delivery")}
}

// Deliver uploads req.Output and returns its public link.
func (d *Link) Deliver(ctx context.Context, req Request) (Result, error) {
	if _, err := outputSize(req.Output); err != nil {
		return Result{}, services.Wrap(services.ErrUploadFailure, stageDelivering, "upload", "", err)
	}
	link, err := d.uploader.Upload(ctx, req.Output.Path, req.SessionID, resultName(req.FileName))
	if err != nil {
		return Result{}, services.Wrap(services.ErrUploadFailure, stageDelivering, "upload", "", err)
	}
	if strings.TrimSpace(link) == "" {
		return Result{}, services.Wrap(services.ErrUploadFailure, stageDelivering, "upload", "storage returned an empty link", nil)
	}
	logging.WithContext(ctx, d.logger).Info("video uploaded",
		logging.String("link", link),
		logging.String(logging.FieldEventType, "delivered_link"),
	)
	return Result{Mode: config.DeliveryLink, Link: link}, nil
}

func outputSize(out render.Output) (int64, error) {
	if strings.TrimSpace(out.Path) == "" {
		return 0, fmt.Errorf("output path empty")
	}
	info, err := os.Stat(out.Path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// resultName derives "<stem>.subbed.mp4" from the user's original name.
func resultName(original string) string {
	original = textutil.SanitizeFileName(original)
	if original == "" {
		return "output.mp4"
	}
	stem := original
	if dot := strings.LastIndex(stem, "."); dot > 0 {
		stem = stem[:dot]
	}
	return stem + ".subbed.mp4"
}

func formatMB(bytes int64) string {
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

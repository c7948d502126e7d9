package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"subburn/internal/config"
	"subburn/internal/delivery"
	"subburn/internal/fileutil"
	"subburn/internal/logging"
)

// Telegram's getFile only serves files up to 20 MB.
const maxDownloadBytes = 20 * 1024 * 1024

// Client wraps a connected bot.
type Client struct {
	bot          *tgbotapi.BotAPI
	fileEndpoint string
	pollTimeout  int
	logger       *slog.Logger
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the HTTP client used for API calls and downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// New connects to the Bot API and verifies the token with getMe.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("telegram: config is required")
	}
	token := strings.TrimSpace(cfg.Telegram.Token)
	if token == "" {
		return nil, errors.New("telegram: bot token not configured")
	}
	options := clientOptions{httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(&options)
	}

	apiEndpoint, fileEndpoint := endpoints(cfg.Telegram.APIEndpoint)
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, options.httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	bot.Debug = cfg.Telegram.Debug

	return &Client{
		bot:          bot,
		fileEndpoint: fileEndpoint,
		pollTimeout:  cfg.Telegram.PollTimeout,
		logger:       logging.NewComponentLogger(logger, "telegram"),
	}, nil
}

// endpoints returns the API and file URL templates. A self-hosted Bot API
// server serves files under /file/bot<token>/ next to /bot<token>/.
func endpoints(apiEndpoint string) (string, string) {
	apiEndpoint = strings.TrimSpace(apiEndpoint)
	if apiEndpoint == "" || apiEndpoint == tgbotapi.APIEndpoint {
		return tgbotapi.APIEndpoint, tgbotapi.FileEndpoint
	}
	if idx := strings.LastIndex(apiEndpoint, "/bot%s/%s"); idx >= 0 {
		return apiEndpoint, apiEndpoint[:idx] + "/file/bot%s/%s"
	}
	return apiEndpoint, tgbotapi.FileEndpoint
}

// Username returns the bot's @name without the @.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendText sends a plain text message.
func (c *Client) SendText(_ context.Context, chatID int64, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendVideo uploads a local video file as a video message.
func (c *Client) SendVideo(ctx context.Context, chatID int64, video delivery.Attachment) error {
	file, err := os.Open(video.Path)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer file.Close()

	name := video.FileName
	if name == "" {
		name = "video.mp4"
	}
	msg := tgbotapi.NewVideo(chatID, tgbotapi.FileReader{Name: name, Reader: file})
	msg.Caption = video.Caption
	msg.Duration = video.DurationSeconds
	msg.SupportsStreaming = true

	logging.WithContext(ctx, c.logger).Debug("uploading video",
		logging.String("file_name", name),
		logging.Int("duration_seconds", video.DurationSeconds),
	)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

// download streams a Telegram file into dst via fileutil.WriteAtomic.
func (c *Client) download(ctx context.Context, fileID, dst string) error {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("get file: %w", err)
	}
	if file.FilePath == "" {
		return errors.New("get file: no file path returned")
	}
	url := fmt.Sprintf(c.fileEndpoint, c.bot.Token, file.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.bot.Client.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", redactToken(err, c.bot.Token))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	if _, err := fileutil.WriteAtomic(dst, resp.Body, 0o644, maxDownloadBytes); err != nil {
		return fmt.Errorf("download: %w", err)
	}
	return nil
}

// redactToken keeps the bot token out of errors that quote the file URL.
func redactToken(err error, token string) error {
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}

package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"subburn/internal/logging"
	"subburn/internal/services"
	"subburn/internal/session"
)

// Handler is the session layer as seen by the poller.
type Handler interface {
	HandleDocument(ctx context.Context, chatID int64, doc session.Document) (session.Outcome, error)
	HandleCommand(ctx context.Context, chatID int64, command string) string
}

// updateSource is the long-poll half of *tgbotapi.BotAPI.
type updateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Poller feeds Telegram updates into a Handler.
type Poller struct {
	client  *Client
	source  updateSource
	handler Handler
	notify  func(ctx context.Context, chatID int64, text string) error
	timeout int
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewPoller builds a poller reading updates from client.
func NewPoller(client *Client, handler Handler, logger *slog.Logger) *Poller {
	return &Poller{
		client:  client,
		source:  client.bot,
		handler: handler,
		notify:  client.SendText,
		timeout: client.pollTimeout,
		logger:  logging.NewComponentLogger(logger, "poller"),
	}
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
func (p *Poller) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	cfg.AllowedUpdates = []string{"message"}
	updates := p.source.GetUpdatesChan(cfg)

	p.logger.Info("polling for updates",
		logging.Int("timeout_seconds", p.timeout),
		logging.String(logging.FieldEventType, "polling_started"),
	)
	defer p.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			p.source.StopReceivingUpdates()
			p.logger.Info("polling stopped", logging.String(logging.FieldEventType, "polling_stopped"))
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				p.dispatch(ctx, update)
			}()
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	ctx = services.WithUserID(ctx, chatID)
	ctx = services.WithRequestID(ctx, requestID(update))
	logger := logging.WithContext(ctx, p.logger)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "update handler panicked", "update_panic",
				logging.Any("panic", r),
				logging.String(logging.FieldImpact, "update dropped"),
			)
		}
	}()

	switch {
	case msg.IsCommand():
		p.handler.HandleCommand(ctx, chatID, msg.Command())
	case msg.Document != nil:
		if p.client == nil {
			return
		}
		outcome, err := p.handler.HandleDocument(ctx, chatID, newDocument(p.client, msg.Document))
		if services.IsTerminal(err) {
			// Already logged and reported by the session layer.
			return
		}
		logger.Debug("document handled",
			logging.String("outcome", string(outcome.Kind)),
			logging.String("state", string(outcome.State)),
			logging.ErrorKind(outcome.Err),
		)
	case msg.Video != nil:
		// Videos sent as media lose their file name; ask for a document instead.
		p.reply(ctx, chatID, msgSendAsFile)
	case strings.TrimSpace(msg.Text) != "":
		p.reply(ctx, chatID, msgTextIgnored)
	}
}

func (p *Poller) reply(ctx context.Context, chatID int64, text string) {
	if err := p.notify(ctx, chatID, text); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "reply not delivered", "reply_send_failed",
			logging.Error(err),
		)
	}
}

const (
	msgSendAsFile  = "Please send the video as a file (attach it as a document) so the .mp4 name is kept."
	msgTextIgnored = "Send a .mp4 video and a .srt subtitle file as documents. /help shows usage."
)

func requestID(update tgbotapi.Update) string {
	return "u" + strconv.Itoa(update.UpdateID)
}

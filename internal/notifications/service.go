package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"subburn/internal/config"
)

const userAgent = "subburn/0.1.0"

// Event enumerates operator-facing milestones.
type Event string

const (
	EventBotStarted       Event = "bot_started"
	EventSessionCompleted Event = "session_completed"
	EventSessionFailed    Event = "session_failed"
	EventTestNotification Event = "test"
)

// Payload carries event fields. Recognized keys: userID, sessionID,
// videoName, deliveryMode, link, duration, errorKind, error, username, mode.
type Payload map[string]any

// Service publishes events to the operator.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventBotStarted:       true,
			EventTestNotification: true,
			EventSessionCompleted: cfg.Notifications.Completions,
			EventSessionFailed:    cfg.Notifications.Failures,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return fmt.Errorf("notifications: unknown event %q", event)
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBotStarted:
		body := "Bot is polling for updates"
		if name := payload.text("username"); name != "" {
			body = fmt.Sprintf("@%s is polling for updates", name)
		}
		if mode := payload.text("mode"); mode != "" {
			body += fmt.Sprintf(" (%s delivery)", mode)
		}
		return message{
			title:    "subburn - Started",
			body:     body,
			tags:     []string{"subburn", "started"},
			priority: "low",
		}, true
	case EventSessionCompleted:
		body := fmt.Sprintf("Burned subtitles for user %s", payload.text("userID"))
		if name := payload.text("videoName"); name != "" {
			body += ": " + name
		}
		if d := payload.text("duration"); d != "" {
			body += fmt.Sprintf(" in %s", d)
		}
		if link := payload.text("link"); link != "" {
			body += "\n" + link
		}
		return message{
			title: "subburn - Delivered",
			body:  body,
			tags:  []string{"subburn", "session", "completed"},
		}, true
	case EventSessionFailed:
		var b strings.Builder
		fmt.Fprintf(&b, "Session for user %s failed", payload.text("userID"))
		if kind := payload.text("errorKind"); kind != "" {
			fmt.Fprintf(&b, " (%s)", kind)
		}
		if errText := payload.text("error"); errText != "" {
			b.WriteString(": ")
			b.WriteString(errText)
		}
		return message{
			title:    "subburn - Failed",
			body:     b.String(),
			tags:     []string{"subburn", "session", "error"},
			priority: "high",
		}, true
	case EventTestNotification:
		return message{
			title:    "subburn - Test",
			body:     "Notification system test",
			tags:     []string{"subburn", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case time.Duration:
		return v.Round(time.Second).String()
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }

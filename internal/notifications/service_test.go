package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"subburn/internal/config"
	"subburn/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func newServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(server.Close)
	return server, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func newService(topic string, completions, failures bool) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Completions = completions
	cfg.Notifications.Failures = failures
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := newService("", true, true)
	if err := svc.Publish(context.Background(), notifications.EventSessionFailed, notifications.Payload{"userID": 1}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "session completed with link",
			event: notifications.EventSessionCompleted,
			payload: notifications.Payload{
				"userID":    int64(42),
				"videoName": "holiday.mp4",
				"duration":  95 * time.Second,
				"link":      "https://cdn.example.com/x.mp4",
			},
			expectTitle: "subburn - Delivered",
			expectBody:  "Burned subtitles for user 42: holiday.mp4 in 1m35s\nhttps://cdn.example.com/x.mp4",
			expectTags:  "subburn,session,completed",
		},
		{
			name:  "session failed",
			event: notifications.EventSessionFailed,
			payload: notifications.Payload{
				"userID":    int64(7),
				"errorKind": "encoding_failure",
				"error":     errors.New("exit status 1"),
			},
			expectTitle:    "subburn - Failed",
			expectBody:     "Session for user 7 failed (encoding_failure): exit status 1",
			expectTags:     "subburn,session,error",
			expectPriority: "high",
		},
		{
			name:           "bot started",
			event:          notifications.EventBotStarted,
			payload:        notifications.Payload{"username": "burnbot", "mode": "link"},
			expectTitle:    "subburn - Started",
			expectBody:     "@burnbot is polling for updates (link delivery)",
			expectTags:     "subburn,started",
			expectPriority: "low",
		},
		{
			name:           "test",
			event:          notifications.EventTestNotification,
			expectTitle:    "subburn - Test",
			expectBody:     "Notification system test",
			expectTags:     "subburn,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, seen := newServer(t, http.StatusOK)
			svc := newService(server.URL, true, true)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			got := seen()
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			if got[0].title != tc.expectTitle || got[0].body != tc.expectBody || got[0].tags != tc.expectTags || got[0].priority != tc.expectPriority {
				t.Fatalf("unexpected request %#v", got[0])
			}
		})
	}
}

func TestNtfyServiceRespectsToggles(t *testing.T) {
	server, seen := newServer(t, http.StatusOK)
	svc := newService(server.URL, false, true)

	if err := svc.Publish(context.Background(), notifications.EventSessionCompleted, notifications.Payload{"userID": 1}); err != nil {
		t.Fatalf("Publish completed: %v", err)
	}
	if len(seen()) != 0 {
		t.Fatal("completions disabled; expected no request")
	}
	if err := svc.Publish(context.Background(), notifications.EventSessionFailed, notifications.Payload{"userID": 1}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if len(seen()) != 1 {
		t.Fatal("failures enabled; expected one request")
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newServer(t, http.StatusForbidden)
	svc := newService(server.URL, true, true)

	err := svc.Publish(context.Background(), notifications.EventTestNotification, nil)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

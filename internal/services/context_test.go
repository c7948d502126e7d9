package services_test

import (
	"context"
	"testing"

	"subburn/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithUserID(ctx, 42)
	ctx = services.WithSessionID(ctx, "sess-1")
	ctx = services.WithStage(ctx, "encoding")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.UserIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected user id: %v %v", id, ok)
	}
	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "sess-1" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "encoding" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	ctx = services.WithSessionID(ctx, "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
}

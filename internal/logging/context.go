package logging

import (
	"context"
	"log/slog"

	"subburn/internal/services"
)

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldUserID identifies the chat user a record belongs to.
	FieldUserID = "user_id"
	// FieldSessionID identifies the burn session a record belongs to.
	FieldSessionID = "session_id"
	// FieldStage is the session state or pipeline step being executed.
	FieldStage = "stage"
	// FieldCorrelationID ties together records from one inbound update.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldErrorKind carries services.Kind of a failure.
	FieldErrorKind = "error_kind"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.UserIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldUserID, id))
	}
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(toArgs(fields)...)
}

package session

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"subburn/internal/config"
	"subburn/internal/delivery"
	"subburn/internal/history"
	"subburn/internal/logging"
	"subburn/internal/notifications"
	"subburn/internal/render"
	"subburn/internal/services"
)

// process runs Ready -> Encoding -> Delivering -> Completed. It is entered
// with sess.mu held and returns with it released.
func (m *Manager) process(ctx context.Context, sess *Session) (Outcome, error) {
	if sess.videoPath == "" || sess.subtitlePath == "" {
		err := services.Wrap(services.ErrMissingInput, string(StateEncoding), "", "both inputs are required before encoding", nil)
		return m.failLocked(ctx, sess, err)
	}
	if err := m.transition(sess, StateEncoding); err != nil {
		return m.failLocked(ctx, sess, err)
	}
	sess.outputPath = filepath.Join(sess.dir, outputFileName)
	inv := render.Invocation{
		VideoPath:    sess.videoPath,
		SubtitlePath: sess.subtitlePath,
		OutputPath:   sess.outputPath,
		Style:        m.deps.Style,
	}
	videoName := sess.videoName
	sessionID := sess.id
	chatID := sess.chatID
	sess.mu.Unlock()

	ctx = services.WithStage(ctx, string(StateEncoding))
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("rendering started",
		logging.String("font", m.deps.Style.FontName),
		logging.String(logging.FieldEventType, "render_started"),
	)
	m.notify(ctx, chatID, msgRenderStarted)

	out, renderErr := m.deps.Renderer.Render(ctx, inv)

	sess.mu.Lock()
	if renderErr != nil {
		return m.failLocked(ctx, sess, renderErr)
	}
	if err := m.transition(sess, StateDelivering); err != nil {
		return m.failLocked(ctx, sess, err)
	}
	sess.mu.Unlock()

	ctx = services.WithStage(ctx, string(StateDelivering))
	result, deliverErr := m.deliver(ctx, chatID, sessionID, videoName, out)

	sess.mu.Lock()
	if deliverErr != nil {
		return m.failLocked(ctx, sess, deliverErr)
	}
	m.conclude(sess, StateCompleted)
	snap := sess.snapshot()
	sess.mu.Unlock()

	m.finish(ctx, snap, result, out, nil)
	return Outcome{Kind: OutcomeCompleted, State: StateCompleted, SessionID: snap.ID, Link: result.Link}, nil
}

func (m *Manager) deliver(ctx context.Context, chatID int64, sessionID, videoName string, out render.Output) (delivery.Result, error) {
	if m.deps.DeliveryMode == config.DeliveryLink {
		m.notify(ctx, chatID, msgRenderDoneLink)
	} else {
		m.notify(ctx, chatID, msgRenderDone)
	}

	result, err := m.deps.Deliverer.Deliver(ctx, delivery.Request{
		ChatID:    chatID,
		SessionID: sessionID,
		FileName:  videoName,
		Output:    out,
	})
	if err != nil {
		return delivery.Result{}, err
	}
	if result.Link != "" {
		if err := m.deps.Notifier.SendText(ctx, chatID, formatLink(result.Link)); err != nil {
			return delivery.Result{}, services.Wrap(services.ErrUploadFailure, string(StateDelivering), "send link", "", err)
		}
	}
	return result, nil
}

// failLocked concludes sess as Failed, then reports err to the user and the
// operator. Entered with sess.mu held; returns with it released.
func (m *Manager) failLocked(ctx context.Context, sess *Session, err error) (Outcome, error) {
	stage := sess.state
	m.conclude(sess, StateFailed)
	snap := sess.snapshot()
	sess.mu.Unlock()

	ctx = services.WithStage(ctx, string(stage))
	logging.ErrorWithContext(logging.WithContext(ctx, m.logger), "session failed", "session_failed",
		logging.Error(err),
		logging.ErrorKind(err),
		logging.String(logging.FieldErrorHint, "see error for the failing step; the user was notified"),
	)
	m.notify(ctx, snap.ChatID, services.UserMessage(err))
	m.finish(ctx, snap, delivery.Result{}, render.Output{}, err)
	return Outcome{Kind: OutcomeFailed, State: StateFailed, SessionID: snap.ID}, err
}

// finish records the concluded session and alerts the operator. Failures
// here are logged only.
func (m *Manager) finish(ctx context.Context, snap Snapshot, result delivery.Result, out render.Output, sessErr error) {
	finished := m.now()
	entry := history.Entry{
		SessionID:    snap.ID,
		UserID:       snap.ChatID,
		Outcome:      history.OutcomeCompleted,
		VideoName:    snap.VideoName,
		SubtitleName: snap.SubtitleName,
		DeliveryMode: result.Mode,
		Link:         result.Link,
		OutputBytes:  out.SizeBytes,
		RenderTime:   out.Elapsed,
		StartedAt:    snap.CreatedAt,
		FinishedAt:   finished,
	}
	event := notifications.EventSessionCompleted
	payload := notifications.Payload{
		"userID":       snap.ChatID,
		"sessionID":    snap.ID,
		"videoName":    snap.VideoName,
		"deliveryMode": result.Mode,
		"link":         result.Link,
		"duration":     finished.Sub(snap.CreatedAt).Round(time.Second),
	}
	if sessErr != nil {
		entry.Outcome = history.OutcomeFailed
		entry.ErrorKind = string(services.Kind(sessErr))
		entry.ErrorMessage = sessErr.Error()
		event = notifications.EventSessionFailed
		payload["errorKind"] = entry.ErrorKind
		payload["error"] = sessErr
	} else {
		logging.WithContext(ctx, m.logger).Info("session completed",
			logging.String("delivery_mode", result.Mode),
			logging.Duration("elapsed", finished.Sub(snap.CreatedAt).Round(time.Millisecond)),
			logging.String(logging.FieldEventType, "session_completed"),
		)
	}

	// Bookkeeping must not be cut short by a cancelled session context.
	bg := context.WithoutCancel(ctx)
	if m.deps.History != nil {
		if err := m.deps.History.Record(bg, entry); err != nil {
			logging.WarnWithContext(m.logger, "history record failed", "history_record_failed",
				logging.String(logging.FieldSessionID, snap.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "session missing from subburn history"),
			)
		}
	}
	if m.deps.Alerts != nil {
		if err := m.deps.Alerts.Publish(bg, event, payload); err != nil {
			logging.WarnWithContext(m.logger, "operator notification failed", "notification_failed",
				logging.String(logging.FieldSessionID, snap.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "operator not alerted"),
			)
		}
	}
}

func formatLink(link string) string {
	return fmt.Sprintf(msgLinkReady, link)
}

// DeliveryModeLabel is shown by /help for the configured strategy.
func DeliveryModeLabel(mode string) string {
	if mode == config.DeliveryLink {
		return "a download link"
	}
	return "a video message"
}

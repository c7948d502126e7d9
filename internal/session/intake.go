package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"subburn/internal/logging"
	"subburn/internal/services"
)

// HandleDocument feeds one inbound file into the chat's session. When it
// supplies the second input, HandleDocument also renders and delivers before
// returning. Rejections come back as Outcome with a nil error; a non-nil error
// means the session failed and has already been cleaned up.
func (m *Manager) HandleDocument(ctx context.Context, chatID int64, doc Document) (Outcome, error) {
	name := strings.TrimSpace(doc.FileName())
	kind := Classify(name)

	sess := m.lock(chatID)
	snap := sess.snapshot()
	ctx = sessionContext(ctx, sess, snap.State)
	logger := logging.WithContext(ctx, m.logger)

	if snap.State.Processing() {
		sess.mu.Unlock()
		m.notify(ctx, chatID, msgBusy)
		return Outcome{Kind: OutcomeBusy, State: snap.State, SessionID: snap.ID}, nil
	}
	if kind == ArtifactUnknown {
		sess.mu.Unlock()
		err := services.Wrap(services.ErrInvalidArtifactKind, "intake", "classify", name, nil)
		logger.Info("document rejected",
			logging.String("file_name", name),
			logging.String(logging.FieldEventType, "artifact_rejected"),
			logging.ErrorKind(err),
		)
		m.notify(ctx, chatID, invalidNotice(snap.State))
		return rejected(err, snap), nil
	}
	if sess.slot(kind) != "" || sess.fetching[kind] {
		sess.mu.Unlock()
		err := services.Wrap(services.ErrDuplicateArtifact, "intake", kind.String(), name, nil)
		logger.Info("duplicate document ignored",
			logging.String("file_name", name),
			logging.String("artifact", kind.String()),
			logging.String(logging.FieldEventType, "artifact_duplicate"),
			logging.ErrorKind(err),
		)
		m.notify(ctx, chatID, duplicateNotice(kind))
		return rejected(err, snap), nil
	}

	sess.fetching[kind] = true
	dst := sess.localPath(kind)
	sess.mu.Unlock()

	fetchErr := os.MkdirAll(filepath.Dir(dst), 0o755)
	if fetchErr == nil {
		fetchErr = doc.Fetch(ctx, dst)
	}

	sess.mu.Lock()
	sess.fetching[kind] = false
	if sess.done {
		sess.mu.Unlock()
		_ = os.Remove(dst)
		return Outcome{Kind: OutcomeRejected, State: StateFailed, SessionID: sess.id}, nil
	}
	if fetchErr != nil {
		snap = sess.snapshot()
		sess.mu.Unlock()
		err := services.Wrap(services.ErrDownloadFailure, "intake", "fetch "+kind.String(), name, fetchErr)
		logging.WarnWithContext(logger, "document download failed", "artifact_download_failed",
			logging.String("file_name", name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "user was asked to resend the file"),
			logging.String(logging.FieldImpact, "slot left empty"),
		)
		m.notify(ctx, chatID, services.UserMessage(err)+" "+msgResend)
		return rejected(err, snap), nil
	}

	sess.store(kind, dst, name)
	next := stateFor(sess.videoPath != "", sess.subtitlePath != "")
	if err := m.transition(sess, next); err != nil {
		return m.failLocked(ctx, sess, err)
	}
	logger.Info("artifact stored",
		logging.String("artifact", kind.String()),
		logging.String("file_name", name),
		logging.String("state", string(next)),
		logging.String(logging.FieldEventType, "artifact_stored"),
	)

	if next != StateReady {
		snap = sess.snapshot()
		sess.mu.Unlock()
		m.notify(ctx, chatID, storedNotice(kind))
		return Outcome{Kind: OutcomeStored, State: snap.State, SessionID: snap.ID}, nil
	}
	return m.process(ctx, sess)
}

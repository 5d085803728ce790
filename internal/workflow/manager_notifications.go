package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quill/internal/archive"
	"quill/internal/logging"
	"quill/internal/session"
)

const outcomeTimeout = 10 * time.Second

// recordOutcome archives and announces a terminal session. Sessions that
// never reached a terminal stage are skipped.
func (m *Manager) recordOutcome(s *session.Session) {
	snap := s.Snapshot()
	if !snap.Stage.Terminal() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), outcomeTimeout)
	defer cancel()

	logger := m.sessionLogger(s)
	_, analysis, document := s.Results()

	rec := archive.Record{
		SessionID:  snap.ID,
		Subject:    snap.Subject,
		Outcome:    string(snap.Stage),
		Tone:       snap.Preferences.Tone,
		Style:      snap.Preferences.Style,
		CreatedAt:  snap.CreatedAt,
		FinishedAt: snap.FinishedAt,
	}
	if snap.Failure != nil {
		rec.ErrorKind = snap.Failure.Kind
		rec.ErrorMessage = snap.Failure.Message
	}
	if analysis != nil {
		rec.Headline = analysis.Headline
		if data, err := json.Marshal(analysis); err == nil {
			rec.AnalysisJSON = string(data)
		}
	}
	if document != nil {
		rec.Markdown = document.Markdown
	}

	if m.recorder != nil {
		if err := m.recorder.Save(ctx, rec); err != nil {
			logging.WarnWithContext(logger, "archive write failed", "archive_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check archive database access"),
				logging.String(logging.FieldImpact, "session will be missing from history"),
			)
		}
	}

	logger.Info("session finished",
		logging.String("outcome", rec.Outcome),
		logging.Duration("session_duration", snap.FinishedAt.Sub(snap.CreatedAt)),
		logging.String(logging.FieldEventType, "session_finished"),
	)
	m.notifyOutcome(ctx, snap, rec)
}

func (m *Manager) notifyOutcome(ctx context.Context, snap session.Snapshot, rec archive.Record) {
	if m.notifier == nil {
		return
	}
	var err error
	switch snap.Stage {
	case session.StageDone:
		err = m.notifier.NotifySessionCompleted(ctx, snap.Subject, rec.Headline, snap.FinishedAt.Sub(snap.CreatedAt))
	case session.StageError:
		stageName := ""
		if snap.Failure != nil {
			stageName = snap.Failure.Stage
		}
		err = m.notifier.NotifySessionFailed(ctx, snap.Subject, stageName, errors.New(rec.ErrorMessage))
	default:
		return
	}
	if err != nil {
		m.logger.Debug("outcome notification failed", logging.Error(err))
	}
}

package workflow

import (
	"context"
	"log/slog"

	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/session"
)

// sessionLogger tags every record with the session id and subject.
func (m *Manager) sessionLogger(s *session.Session) *slog.Logger {
	base := logging.NewComponentLogger(m.logger, "workflow-pipeline")
	return logging.WithSession(base, s.ID()).With(logging.Subject(s.Subject()))
}

func withStageContext(ctx context.Context, stageName, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}

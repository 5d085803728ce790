package workflow

import (
	"fmt"
	"log/slog"
	"strings"

	"quill/internal/eventlog"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/session"
)

// handleStageFailure ends the session in ERROR with a single error event.
func (m *Manager) handleStageFailure(s *session.Session, stageName string, stageErr error, logger *slog.Logger) {
	details := services.Details(stageErr)
	message := classifyStageFailure(stageName, stageErr)
	payload := eventlog.ErrorPayload{
		Stage:   stageName,
		Message: message,
		Kind:    string(details.Kind),
		Hint:    details.Hint,
	}
	evt := eventlog.Event{Kind: eventlog.KindError, Stage: stageName, Message: message, Payload: payload}
	cause := services.Wrap(services.ErrStageFailure, stageName, "run", message, stageErr)
	if !s.Terminate(session.StageError, evt, cause) {
		logger.Debug("stage failure after session ended", logging.Error(stageErr))
		return
	}

	attrs := []logging.Attr{
		logging.String("error_message", message),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String("error_operation", details.Operation),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.String(logging.FieldEventType, "stage_failure"),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	} else {
		attrs = append(attrs, logging.Error(stageErr))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)
	m.setLastError(fmt.Errorf("session %s %s: %w", s.ID(), stageName, stageErr))
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageFailureMessage(stageName, "failed without error detail")
	}
	message := strings.TrimSpace(services.Details(stageErr).Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = stageFailureMessage(stageName, "failed")
	}
	return message
}

func stageFailureMessage(stageName, defaultMsg string) string {
	if stageName != "" {
		return fmt.Sprintf("%s %s", stageName, defaultMsg)
	}
	return fmt.Sprintf("workflow %s", defaultMsg)
}

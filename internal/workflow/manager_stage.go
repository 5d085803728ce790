package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"quill/internal/eventlog"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/session"
	"quill/internal/stage"
)

// executeStage runs one executor and records its outcome. It returns false
// when the pipeline must stop.
func (m *Manager) executeStage(s *session.Session, stg pipelineStage, sessionLogger *slog.Logger) bool {
	started := eventlog.Event{Kind: eventlog.KindStageStarted, Stage: stg.name, Message: stg.startMessage(s.Subject())}
	if err := s.Transition(stg.running, started); err != nil {
		sessionLogger.Debug("stage not started", logging.Stage(stg.name), logging.Error(err))
		return false
	}

	requestID := uuid.NewString()
	ctx := withStageContext(s.Context(), stg.name, requestID)
	stageLogger := sessionLogger.With(
		logging.Stage(stg.name),
		logging.String(logging.FieldCorrelationID, requestID),
	)
	stageStart := m.now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	progress := func(message string) {
		if err := s.Progress(stg.name, message); err != nil {
			stageLogger.Debug("progress dropped", logging.Error(err))
		}
	}

	result, runErr := runExecutor(ctx, stg.executor, s.Input(stg.name), progress)
	if runErr != nil {
		if cause := context.Cause(s.Context()); cause != nil {
			stageLogger.Info("stage interrupted",
				logging.String(logging.FieldEventType, "stage_interrupted"),
				logging.String("cause", cause.Error()),
			)
			return false
		}
		m.handleStageFailure(s, stg.name, runErr, stageLogger)
		return false
	}

	if err := s.Complete(stg.name, result, stg.doneMessage); err != nil {
		if errors.Is(err, services.ErrStageFailure) {
			m.handleStageFailure(s, stg.name, err, stageLogger)
		} else {
			stageLogger.Debug("stage result discarded", logging.Error(err))
		}
		return false
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_stage", string(s.Stage())),
		logging.Duration(logging.FieldStageDuration, m.now().Sub(stageStart)),
	)
	return true
}

// runExecutor calls exec.Run and converts a panic into a stage failure.
func runExecutor(ctx context.Context, exec stage.Executor, in stage.Input, progress stage.ProgressFunc) (result stage.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = services.Wrap(services.ErrStageFailure, exec.Name(), "run", fmt.Sprintf("executor panicked: %v", r), nil)
		}
	}()
	return exec.Run(ctx, in, progress)
}

// awaitStyle moves the session into the style pause and blocks until a
// style is chosen or the session ends. A style supplied at start resolves
// the pause immediately.
func (m *Manager) awaitStyle(s *session.Session, logger *slog.Logger) bool {
	prefs := s.Preferences()
	evt := eventlog.Event{
		Kind:    eventlog.KindAwaitingInput,
		Message: "Choose a README style",
		Payload: stage.NewStyleOptions(prefs.Tone),
	}
	if err := s.Transition(session.StageAwaitingStyle, evt); err != nil {
		logger.Debug("style pause not entered", logging.Error(err))
		return false
	}
	logger.Info("awaiting style selection", logging.String(logging.FieldEventType, "awaiting_style"))

	if prefs.Style != "" {
		if err := s.SelectStyle(prefs.Style, prefs.Description, m.cfg.ExtendedDeadline()); err != nil && !errors.Is(err, services.ErrAlreadySelected) {
			logger.Warn("preselected style rejected; waiting for selection",
				logging.Error(err),
				logging.String(logging.FieldEventType, "style_preselect_failed"),
				logging.String(logging.FieldImpact, "session waits for an explicit style"),
			)
		}
	}

	waitStart := m.now()
	select {
	case <-s.StyleSelected():
		logger.Info("style selected",
			logging.String("style", s.Preferences().Style),
			logging.Duration("wait_duration", m.now().Sub(waitStart)),
			logging.String(logging.FieldEventType, "style_selected"),
		)
		return s.Context().Err() == nil
	case <-s.Context().Done():
		return false
	}
}


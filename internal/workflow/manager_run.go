package workflow

import (
	"context"
	"errors"

	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/session"
	"quill/internal/stage"
)

// Start launches the supervisor loop and accepts new sessions.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	for _, stg := range m.stages {
		if stg.executor == nil {
			m.mu.Unlock()
			return errors.New("workflow stages not configured")
		}
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.runCtx = runCtx
	m.cancel = cancel
	m.running = true
	m.wg.Add(2)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.supervisor.Run(runCtx)
	}()
	go func() {
		defer m.wg.Done()
		m.runPreflightChecks(runCtx)
	}()

	m.logger.Info("workflow started",
		logging.Int("max_sessions", m.cfg.Session.MaxSessions),
		logging.Duration("base_deadline", m.cfg.BaseDeadline()),
		logging.String(logging.FieldEventType, "workflow_start"),
	)
	return nil
}

// Stop cancels every live session and waits for pipelines to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.runCtx = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// StartSession registers a session and launches its pipeline.
func (m *Manager) StartSession(ctx context.Context, subject string, prefs stage.Preferences) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running {
		return nil, services.Wrap(services.ErrUnavailable, "workflow", "start session", "workflow is not running", nil)
	}

	s, err := m.registry.Create(ctx, subject, prefs)
	if err != nil {
		return nil, err
	}
	m.wg.Add(1)
	go m.runPipeline(m.runCtx, s)
	return s, nil
}

func (m *Manager) runPipeline(runCtx context.Context, s *session.Session) {
	defer m.wg.Done()

	stop := context.AfterFunc(runCtx, func() {
		m.supervisor.Abandon(s, "daemon shutting down")
	})
	defer stop()
	defer m.recordOutcome(s)

	logger := m.sessionLogger(s)
	logger.Info("session started",
		logging.String("subject", s.Subject()),
		logging.String("tone", s.Preferences().Tone),
		logging.String(logging.FieldEventType, "session_start"),
	)

	for _, stg := range m.stageList() {
		if stg.name == stage.NameGhostwriter && !m.awaitStyle(s, logger) {
			return
		}
		if !m.executeStage(s, stg, logger) {
			return
		}
	}
}

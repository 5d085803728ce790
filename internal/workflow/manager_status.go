package workflow

import (
	"context"

	"quill/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running         bool
	LastError       string
	ActiveSessions  int
	Capacity        int
	SessionsByStage map[string]int
	StageHealth     map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	m.mu.RUnlock()

	byStage := make(map[string]int)
	active := 0
	for _, snap := range m.Sessions() {
		byStage[string(snap.Stage)]++
		if !snap.Stage.Terminal() {
			active++
		}
	}

	summary := StatusSummary{
		Running:         running,
		ActiveSessions:  active,
		Capacity:        m.cfg.Session.MaxSessions,
		SessionsByStage: byStage,
		StageHealth:     m.Health(ctx),
	}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

package workflow

import (
	"context"
	"fmt"

	"quill/internal/broadcast"
	"quill/internal/services"
	"quill/internal/session"
	"quill/internal/stage"
)

// Result is the fetchable output of a finished session.
type Result struct {
	SessionID string               `json:"session_id"`
	Subject   string               `json:"username"`
	Document  *stage.Document      `json:"document"`
	Analysis  *stage.Analysis      `json:"analysis"`
	Profile   stage.ProfileSummary `json:"profile"`
}

// Get returns a snapshot of the session and records the read as activity.
func (m *Manager) Get(id string) (session.Snapshot, error) {
	s, err := m.registry.Get(id)
	if err != nil {
		return session.Snapshot{}, err
	}
	s.Touch()
	return s.Snapshot(), nil
}

// Sessions returns snapshots of every registered session.
func (m *Manager) Sessions() []session.Snapshot {
	list := m.registry.List()
	out := make([]session.Snapshot, 0, len(list))
	for _, s := range list {
		out = append(out, s.Snapshot())
	}
	return out
}

// Subscribe attaches the stream subscriber for id. Callers must hand the
// subscription back through Unsubscribe.
func (m *Manager) Subscribe(id string) (*broadcast.Subscription, error) {
	s, err := m.registry.Get(id)
	if err != nil {
		return nil, err
	}
	sub, err := m.broadcaster.Subscribe(id, s.Log())
	if err != nil {
		return nil, err
	}
	s.MarkSubscribed()
	return sub, nil
}

// Unsubscribe detaches sub. A subscriber leaving a live session abandons it.
func (m *Manager) Unsubscribe(sub *broadcast.Subscription) {
	if sub == nil {
		return
	}
	if !sub.Close() {
		return
	}
	s, err := m.registry.Get(sub.SessionID())
	if err != nil {
		return
	}
	m.supervisor.Abandon(s, "client disconnected")
}

// Touch records client activity on id, such as a stream keepalive. Unknown
// ids are ignored.
func (m *Manager) Touch(id string) {
	if s, err := m.registry.Get(id); err == nil {
		s.Touch()
	}
}

// SelectStyle resolves the style pause for id.
func (m *Manager) SelectStyle(id, style, description string) error {
	s, err := m.registry.Get(id)
	if err != nil {
		return err
	}
	return s.SelectStyle(style, description, m.cfg.ExtendedDeadline())
}

// Cleanup cancels and evicts id. Unknown ids are ignored.
func (m *Manager) Cleanup(id string) {
	s, err := m.registry.Get(id)
	if err != nil {
		return
	}
	m.supervisor.Abandon(s, "cleanup requested")
	m.supervisor.evict(s, "cleanup requested")
}

// Result returns the document, analysis and profile summary of a DONE
// session.
func (m *Manager) Result(id string) (Result, error) {
	s, err := m.registry.Get(id)
	if err != nil {
		return Result{}, err
	}
	s.Touch()
	current := s.Stage()
	if current != session.StageDone {
		return Result{}, services.Wrap(services.ErrNotReady, "workflow", "result",
			fmt.Sprintf("session is %s", current), nil)
	}
	profile, analysis, document := s.Results()
	out := Result{SessionID: s.ID(), Subject: s.Subject(), Document: document, Analysis: analysis}
	if profile != nil {
		if summary, ok := profile.Summary().(stage.ProfileSummary); ok {
			out.Profile = summary
		}
	}
	return out, nil
}

// Health reports the readiness of every configured executor.
func (m *Manager) Health(ctx context.Context) map[string]stage.Health {
	stages := m.stageList()
	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.executor == nil {
			health[stg.name] = stage.Unhealthy(stg.name, "executor not configured")
			continue
		}
		health[stg.name] = stg.executor.HealthCheck(ctx)
	}
	return health
}

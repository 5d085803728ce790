package workflow

import (
	"context"
	"log/slog"
	"time"

	"quill/internal/broadcast"
	"quill/internal/eventlog"
	"quill/internal/logging"
	"quill/internal/registry"
	"quill/internal/services"
	"quill/internal/session"
)

// SupervisorConfig holds the sweep cadence and the idle and retention windows.
// Replay applies to TIMEOUT sessions; zero evicts them as soon as they end.
type SupervisorConfig struct {
	Interval  time.Duration
	Idle      time.Duration
	Retention time.Duration
	Replay    time.Duration
}

// Supervisor enforces session deadlines, cancels abandoned sessions and
// evicts finished ones.
type Supervisor struct {
	registry    *registry.Registry
	broadcaster *broadcast.Broadcaster
	logger      *slog.Logger
	cfg         SupervisorConfig
	now         func() time.Time
}

// NewSupervisor creates a new supervisor.
func NewSupervisor(reg *registry.Registry, bc *broadcast.Broadcaster, logger *slog.Logger, cfg SupervisorConfig, now func() time.Time) *Supervisor {
	if now == nil {
		now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	return &Supervisor{
		registry:    reg,
		broadcaster: bc,
		logger:      logging.NewComponentLogger(logger, "workflow-supervisor"),
		cfg:         cfg,
		now:         now,
	}
}

// Run sweeps the registry on every tick until ctx is cancelled.
func (sv *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(sv.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sv.logger.Debug("supervisor stopped")
			return
		case <-ticker.C:
			sv.Sweep()
		}
	}
}

// Sweep applies every trigger once and returns how many sessions it ended
// or evicted.
func (sv *Supervisor) Sweep() int {
	now := sv.now()
	acted := 0
	for _, s := range sv.registry.List() {
		snap := s.Snapshot()
		switch {
		case snap.Stage.Terminal():
			if sv.expired(snap, now) {
				sv.evict(s, "retention elapsed")
				acted++
			}
		case !snap.Deadline.IsZero() && now.After(snap.Deadline):
			if sv.Expire(s) {
				acted++
			}
		case sv.idle(snap, now):
			if sv.Abandon(s, "no subscriber attached") {
				acted++
			}
		}
	}
	return acted
}

func (sv *Supervisor) expired(snap session.Snapshot, now time.Time) bool {
	if snap.Stage == session.StageTimeout {
		return now.Sub(snap.FinishedAt) >= sv.cfg.Replay
	}
	return now.Sub(snap.FinishedAt) >= sv.cfg.Retention
}

func (sv *Supervisor) idle(snap session.Snapshot, now time.Time) bool {
	if sv.cfg.Idle <= 0 || snap.Subscribed || sv.broadcaster.Active(snap.ID) {
		return false
	}
	return now.Sub(snap.LastActivity) >= sv.cfg.Idle
}

// Expire ends s with a timeout event. The session is evicted once the replay
// window has passed. It reports whether this
// call performed the terminal transition; a session that finished first is
// left alone.
func (sv *Supervisor) Expire(s *session.Session) bool {
	running := s.Stage().Executor()
	evt := eventlog.Event{
		Kind:    eventlog.KindTimeout,
		Stage:   running,
		Message: "session deadline exceeded",
		Payload: eventlog.ErrorPayload{
			Stage:   running,
			Message: "session deadline exceeded",
			Kind:    string(services.KindTimeout),
			Code:    "deadline",
		},
	}
	won := s.Terminate(session.StageTimeout, evt, services.Wrap(services.ErrTimeout, running, "deadline", "session deadline exceeded", nil))
	if won {
		logging.WarnWithContext(sv.logger, "session timed out", "session_timeout",
			logging.SessionID(s.ID()),
			logging.Subject(s.Subject()),
			logging.Stage(running),
			logging.String(logging.FieldErrorHint, "raise session.base_deadline_seconds if stages routinely run long"),
			logging.String(logging.FieldImpact, "no README was produced"),
		)
		sv.release(s, "timed out")
	}
	return won
}

// Abandon cancels s on behalf of a departed client. Like Expire it keeps the
// session for the replay window. A session that already finished is left for
// retention.
func (sv *Supervisor) Abandon(s *session.Session, reason string) bool {
	running := s.Stage().Executor()
	evt := eventlog.Event{
		Kind:    eventlog.KindError,
		Stage:   running,
		Message: "session cancelled: " + reason,
		Payload: eventlog.ErrorPayload{
			Stage:   running,
			Message: reason,
			Kind:    string(services.KindCancelled),
			Code:    "cancelled",
		},
	}
	won := s.Terminate(session.StageTimeout, evt, services.Wrap(services.ErrCancelled, running, "abandon", reason, nil))
	if won {
		sv.logger.Info("session cancelled",
			logging.SessionID(s.ID()),
			logging.Subject(s.Subject()),
			logging.String("reason", reason),
			logging.String(logging.FieldEventType, "session_cancelled"),
		)
		sv.release(s, reason)
	}
	return won
}

func (sv *Supervisor) release(s *session.Session, reason string) {
	if sv.cfg.Replay <= 0 {
		sv.evict(s, reason)
	}
}

func (sv *Supervisor) evict(s *session.Session, reason string) {
	if sv.registry.Remove(s.ID()) {
		sv.broadcaster.Forget(s.ID())
		sv.logger.Debug("session evicted",
			logging.SessionID(s.ID()),
			logging.String("reason", reason),
		)
	}
}

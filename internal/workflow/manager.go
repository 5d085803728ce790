package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quill/internal/archive"
	"quill/internal/broadcast"
	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/notifications"
	"quill/internal/preflight"
	"quill/internal/registry"
)

// OutcomeRecorder persists terminal session outcomes.
type OutcomeRecorder interface {
	Save(ctx context.Context, rec archive.Record) error
}

// Manager coordinates session pipelines using registered stage executors.
type Manager struct {
	cfg         *config.Config
	logger      *slog.Logger
	notifier    notifications.Service
	recorder    OutcomeRecorder
	probes      *preflight.Probes
	registry    *registry.Registry
	broadcaster *broadcast.Broadcaster
	supervisor  *Supervisor
	now         func() time.Time

	mu      sync.RWMutex
	stages  []pipelineStage
	running bool
	runCtx  context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	notifier notifications.Service
	recorder OutcomeRecorder
	probes   *preflight.Probes
	now      func() time.Time
	newID    func() string
}

// WithNotifier overrides the ntfy notifier built from config.
func WithNotifier(n notifications.Service) ManagerOption {
	return func(o *managerOptions) { o.notifier = n }
}

// WithRecorder archives terminal outcomes.
func WithRecorder(r OutcomeRecorder) ManagerOption {
	return func(o *managerOptions) { o.recorder = r }
}

// WithPreflight logs readiness checks when the manager starts.
func WithPreflight(p preflight.Probes) ManagerOption {
	return func(o *managerOptions) { o.probes = &p }
}

// WithClock replaces time.Now for deadlines and supervisor sweeps.
func WithClock(now func() time.Time) ManagerOption {
	return func(o *managerOptions) { o.now = now }
}

// WithIDGenerator replaces the uuid session id source.
func WithIDGenerator(newID func() string) ManagerOption {
	return func(o *managerOptions) { o.newID = newID }
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if options.now == nil {
		options.now = time.Now
	}
	if options.notifier == nil {
		options.notifier = notifications.NewService(cfg)
	}

	bc := broadcast.New(logger)
	reg := registry.New(registry.Options{
		Capacity:     cfg.Session.MaxSessions,
		BaseDeadline: cfg.BaseDeadline(),
		Now:          options.now,
		NewID:        options.newID,
		Publisher:    bc,
	})

	m := &Manager{
		cfg:         cfg,
		logger:      logger,
		notifier:    options.notifier,
		recorder:    options.recorder,
		probes:      options.probes,
		registry:    reg,
		broadcaster: bc,
		now:         options.now,
	}
	m.supervisor = NewSupervisor(reg, bc, logger, SupervisorConfig{
		Interval:  cfg.SupervisorInterval(),
		Idle:      cfg.IdleTimeout(),
		Retention: cfg.Retention(),
		Replay:    cfg.ReplayWindow(),
	}, options.now)
	return m
}

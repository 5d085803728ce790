package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"quill/internal/archive"
	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/preflight"
	"quill/internal/workflow"
)

const archivePruneInterval = 24 * time.Hour

// History is the archive surface the daemon serves and prunes.
type History interface {
	List(ctx context.Context, limit int) ([]archive.Record, error)
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Daemon coordinates the workflow manager and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	workflow *workflow.Manager
	history  History

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running   atomic.Bool
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	startedAt time.Time
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Bind         string
	LockFilePath string
	ArchivePath  string
	StartedAt    time.Time
	Workflow     workflow.StatusSummary
	Preflight    []preflight.Result
}

// Option configures optional daemon behavior.
type Option func(*Daemon)

// WithHistory serves and prunes archived outcomes.
func WithHistory(h History) Option {
	return func(d *Daemon) { d.history = h }
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, wf *workflow.Manager, opts ...Option) (*Daemon, error) {
	if cfg == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, logger, and workflow manager")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, launches the workflow manager and begins
// serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another quill daemon instance is already running")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		d.abortStart()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.workflow.Stop()
		d.abortStart()
		return fmt.Errorf("start api: %w", err)
	}

	if d.history != nil && d.cfg.Archive.RetentionDays > 0 {
		d.wg.Add(1)
		go d.pruneLoop(d.ctx)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("quill daemon started",
		logging.String("lock", d.lockPath),
		logging.String("bind", d.api.address()),
		logging.String(logging.FieldEventType, "daemon_start"),
	)
	return nil
}

func (d *Daemon) abortStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops the API, abandons live sessions and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	// Abandoning live sessions ends their streams so the API can drain.
	d.workflow.Stop()
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String("lock", d.lockPath),
			logging.String(logging.FieldImpact, "the next daemon start may report another instance"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("quill daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Address returns the API listener address once started.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status. Preflight checks only run when
// requested since they reach external services.
func (d *Daemon) Status(ctx context.Context, withPreflight bool) Status {
	d.mu.Lock()
	started := d.startedAt
	d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Bind:         d.api.address(),
		LockFilePath: d.lockPath,
		StartedAt:    started,
		Workflow:     d.workflow.Status(ctx),
	}
	if d.history != nil {
		status.ArchivePath = d.cfg.ArchivePath()
	}
	if withPreflight {
		status.Preflight = d.workflow.Preflight(ctx)
	}
	return status
}

func (d *Daemon) pruneLoop(ctx context.Context) {
	defer d.wg.Done()
	d.pruneArchive(ctx)
	ticker := time.NewTicker(archivePruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.pruneArchive(ctx)
		}
	}
}

func (d *Daemon) pruneArchive(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -d.cfg.Archive.RetentionDays)
	removed, err := d.history.Prune(ctx, cutoff)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(d.logger, "archive prune failed", "archive_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the archive database permissions"),
			logging.String(logging.FieldImpact, "old history entries are kept"),
		)
		return
	}
	if removed > 0 {
		d.logger.Info("archive pruned",
			logging.Int64("removed", removed),
			logging.Int("retention_days", d.cfg.Archive.RetentionDays),
		)
	}
}

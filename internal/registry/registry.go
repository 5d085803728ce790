package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quill/internal/services"
	"quill/internal/session"
	"quill/internal/stage"
)

// Options configures a Registry.
type Options struct {
	Capacity     int
	BaseDeadline time.Duration
	Now          func() time.Time
	NewID        func() string
	Publisher    session.Publisher
}

// Registry owns every live session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	capacity     int
	baseDeadline time.Duration
	now          func() time.Time
	newID        func() string
	publisher    session.Publisher
}

// New constructs an empty registry.
func New(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Registry{
		sessions:     make(map[string]*session.Session),
		capacity:     opts.Capacity,
		baseDeadline: opts.BaseDeadline,
		now:          opts.Now,
		newID:        opts.NewID,
		publisher:    opts.Publisher,
	}
}

// Create validates the request and registers a new session in INIT. The
// session context inherits values from ctx but not its cancellation, so a
// finished HTTP request does not end the pipeline.
func (r *Registry) Create(ctx context.Context, subject string, prefs stage.Preferences) (*session.Session, error) {
	subject = strings.TrimSpace(subject)
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	tone, ok := stage.NormalizeTone(prefs.Tone)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "registry", "create", fmt.Sprintf("unknown tone %q", prefs.Tone), nil)
	}
	prefs.Tone = tone
	if prefs.Style != "" {
		style, ok := stage.NormalizeStyle(prefs.Style)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "registry", "create", fmt.Sprintf("unknown style %q", prefs.Style), nil)
		}
		prefs.Style = style
	}
	if len(prefs.Description) > stage.MaxDescriptionLength {
		return nil, services.Wrap(services.ErrValidation, "registry", "create", "description too long", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity > 0 && r.activeLocked() >= r.capacity {
		return nil, services.WithHint(
			services.Wrap(services.ErrUnavailable, "registry", "create", "session capacity reached", nil),
			"retry once running sessions finish or raise session.max_sessions",
		)
	}

	id := r.newID()
	for attempts := 0; ; attempts++ {
		if _, taken := r.sessions[id]; !taken {
			break
		}
		if attempts >= 8 {
			return nil, services.Wrap(services.ErrUnavailable, "registry", "create", "could not allocate session id", nil)
		}
		id = r.newID()
	}

	s := session.New(session.Options{
		ID:           id,
		Subject:      subject,
		Preferences:  prefs,
		BaseDeadline: r.baseDeadline,
		Parent:       context.WithoutCancel(ctx),
		Now:          r.now,
		Publisher:    r.publisher,
	})
	r.sessions[id] = s
	return s, nil
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*session.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "registry", "get", fmt.Sprintf("session %s not found", id), nil)
	}
	return s, nil
}

// Remove cancels and deletes the session. Removing an unknown id is a no-op;
// the return value reports whether anything was removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Release(services.ErrCancelled)
	}
	return ok
}

// List returns the registered sessions ordered by creation time.
func (r *Registry) List() []*session.Session {
	r.mu.RLock()
	out := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Snapshot().CreatedAt.Before(out[j].Snapshot().CreatedAt)
	})
	return out
}

// Active returns the number of sessions that have not reached a terminal
// stage. Finished sessions kept for retention do not count against capacity.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLocked()
}

func (r *Registry) activeLocked() int {
	n := 0
	for _, s := range r.sessions {
		if !s.Stage().Terminal() {
			n++
		}
	}
	return n
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

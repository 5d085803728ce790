package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quill/internal/eventlog"
	"quill/internal/services"
	"quill/internal/stage"
)

// Options configures a new Session.
type Options struct {
	ID           string
	Subject      string
	Preferences  stage.Preferences
	BaseDeadline time.Duration
	Parent       context.Context
	Now          func() time.Time
	// Publisher appends the session's events. Nil appends to the log directly.
	Publisher    Publisher
}

// Publisher appends events to a session log on behalf of the state machine.
// It is called with the session mutex held and must not call back into the
// session.
type Publisher interface {
	Publish(log *eventlog.Log, evt eventlog.Event) (eventlog.Event, error)
	PublishFinal(log *eventlog.Log, evt eventlog.Event) (eventlog.Event, error)
}

type logPublisher struct{}

func (logPublisher) Publish(log *eventlog.Log, evt eventlog.Event) (eventlog.Event, error) {
	return log.Append(evt)
}

func (logPublisher) PublishFinal(log *eventlog.Log, evt eventlog.Event) (eventlog.Event, error) {
	return log.AppendFinal(evt)
}

// Session is one pipeline run for one subject. All mutable fields are
// guarded by mu, and every stage or result change appends its event to the
// log inside the same critical section.
type Session struct {
	id        string
	subject   string
	createdAt time.Time
	log       *eventlog.Log
	pub       Publisher
	ctx       context.Context
	cancel    context.CancelCauseFunc
	styleCh   chan struct{}
	done      chan struct{}
	now       func() time.Time

	mu            sync.Mutex
	stage         Stage
	prefs         stage.Preferences
	styleSelected bool
	profile       *stage.Profile
	analysis      *stage.Analysis
	document      *stage.Document
	lastActivity  time.Time
	deadline      time.Time
	finishedAt    time.Time
	subscribed    bool
	failure       *eventlog.ErrorPayload
}

// New creates a session in INIT.
func New(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	parent := opts.Parent
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	ctx = services.WithSessionID(ctx, opts.ID)
	ctx = services.WithSubject(ctx, opts.Subject)

	pub := opts.Publisher
	if pub == nil {
		pub = logPublisher{}
	}

	created := now()
	return &Session{
		id:           opts.ID,
		subject:      opts.Subject,
		createdAt:    created,
		log:          eventlog.NewWithClock(now),
		pub:          pub,
		ctx:          ctx,
		cancel:       cancel,
		styleCh:      make(chan struct{}),
		done:         make(chan struct{}),
		now:          now,
		stage:        StageInit,
		prefs:        opts.Preferences,
		lastActivity: created,
		deadline:     created.Add(opts.BaseDeadline),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Subject() string { return s.subject }

// Log exposes the session's event log for subscribers.
func (s *Session) Log() *eventlog.Log { return s.log }

// Context is cancelled, with a cause, when the session is terminated
// externally. Executors run under it.
func (s *Session) Context() context.Context { return s.ctx }

// Done is closed once the session reaches a terminal stage.
func (s *Session) Done() <-chan struct{} { return s.done }

// StyleSelected is closed once a style has been chosen.
func (s *Session) StyleSelected() <-chan struct{} { return s.styleCh }

// Stage returns the current stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Preferences returns the current preferences.
func (s *Session) Preferences() stage.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Transition moves the session along a forward edge and appends evt. Reaching
// DONE closes the log. Use Terminate for ERROR and TIMEOUT.
func (s *Session) Transition(to Stage, evt eventlog.Event) error {
	if to == StageError || to == StageTimeout {
		return services.Wrap(services.ErrInvalidState, "session", "transition", "failure stages require Terminate", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to, evt)
}

func (s *Session) transitionLocked(to Stage, evt eventlog.Event) error {
	if !CanTransition(s.stage, to) {
		return services.Wrap(services.ErrInvalidState, "session", "transition",
			fmt.Sprintf("%s -> %s is not allowed", s.stage, to), nil)
	}
	var err error
	if to.Terminal() {
		_, err = s.pub.PublishFinal(s.log, evt)
	} else {
		_, err = s.pub.Publish(s.log, evt)
	}
	if err != nil {
		return services.Wrap(services.ErrInvalidState, "session", "transition", "event log closed", err)
	}
	s.stage = to
	if to.Terminal() {
		s.finishLocked()
	}
	return nil
}

// Progress appends a stage-progress event while the named executor runs.
func (s *Session) Progress(name, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stage.Executor() != name {
		return services.Wrap(services.ErrInvalidState, name, "progress", "stage is not running", nil)
	}
	if _, err := s.pub.Publish(s.log, eventlog.Event{Kind: eventlog.KindStageProgress, Stage: name, Message: message}); err != nil {
		return services.Wrap(services.ErrInvalidState, name, "progress", "event log closed", err)
	}
	return nil
}

// Complete stores the named executor's result and advances the session. The
// ghostwriter's completion appends stage-completed and session-done and
// reaches DONE atomically.
func (s *Session) Complete(name string, result stage.Result, message string) error {
	if err := stage.CheckResult(name, result); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	running, ok := RunningStageFor(name)
	if !ok || s.stage != running {
		return services.Wrap(services.ErrInvalidState, name, "complete", "stage is not running", nil)
	}
	completed := eventlog.Event{Kind: eventlog.KindStageCompleted, Stage: name, Message: message, Payload: result.Summary()}

	switch r := result.(type) {
	case *stage.Profile:
		if err := s.transitionLocked(StageDetectiveDone, completed); err != nil {
			return err
		}
		s.profile = r
	case *stage.Analysis:
		if err := s.transitionLocked(StageCTODone, completed); err != nil {
			return err
		}
		s.analysis = r
	case *stage.Document:
		if _, err := s.pub.Publish(s.log, completed); err != nil {
			return services.Wrap(services.ErrInvalidState, name, "complete", "event log closed", err)
		}
		s.document = r
		done := eventlog.Event{Kind: eventlog.KindSessionDone, Message: "README ready"}
		if err := s.transitionLocked(StageDone, done); err != nil {
			return err
		}
	}
	return nil
}

// SelectStyle resolves the style pause. It fails with AlreadySelected after
// a successful call and with InvalidState outside AWAITING_STYLE; neither
// failure mutates the session.
func (s *Session) SelectStyle(style, description string, extend time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.styleSelected {
		return services.Wrap(services.ErrAlreadySelected, "session", "select style", "a style was already chosen", nil)
	}
	if s.stage != StageAwaitingStyle {
		return services.Wrap(services.ErrInvalidState, "session", "select style",
			fmt.Sprintf("session is %s, not awaiting a style", s.stage), nil)
	}
	normalized, ok := stage.NormalizeStyle(style)
	if !ok {
		return services.Wrap(services.ErrValidation, "session", "select style", fmt.Sprintf("unknown style %q", style), nil)
	}
	if len(description) > stage.MaxDescriptionLength {
		return services.Wrap(services.ErrValidation, "session", "select style", "description too long", nil)
	}

	now := s.now()
	s.prefs.Style = normalized
	s.prefs.Description = description
	s.styleSelected = true
	s.deadline = now.Add(extend)
	s.lastActivity = now
	close(s.styleCh)
	return nil
}

// Terminate ends the session in ERROR or TIMEOUT, appending evt as the final
// event and cancelling the session context with cause. Only the first
// caller wins; later calls and calls on finished sessions return false.
func (s *Session) Terminate(to Stage, evt eventlog.Event, cause error) bool {
	if to != StageError && to != StageTimeout {
		return false
	}
	s.mu.Lock()
	if s.stage.Terminal() {
		s.mu.Unlock()
		return false
	}
	if _, err := s.pub.PublishFinal(s.log, evt); err != nil && !errors.Is(err, eventlog.ErrClosed) {
		s.mu.Unlock()
		return false
	}
	s.stage = to
	if payload, ok := evt.Payload.(eventlog.ErrorPayload); ok {
		s.failure = &payload
	}
	s.finishLocked()
	s.mu.Unlock()

	if cause == nil {
		cause = services.ErrCancelled
	}
	s.cancel(cause)
	return true
}

// finishLocked records the terminal timestamp and releases waiters.
func (s *Session) finishLocked() {
	s.finishedAt = s.now()
	close(s.done)
}

// Release cancels the session context without changing its stage. Registry
// eviction calls it so no goroutine outlives the session.
func (s *Session) Release(cause error) {
	if cause == nil {
		cause = services.ErrCancelled
	}
	s.cancel(cause)
}

// Touch records client activity.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = s.now()
	s.mu.Unlock()
}

// MarkSubscribed records that a stream subscriber attached.
func (s *Session) MarkSubscribed() {
	s.mu.Lock()
	s.subscribed = true
	s.lastActivity = s.now()
	s.mu.Unlock()
}

// Results returns whatever results have been stored so far.
func (s *Session) Results() (*stage.Profile, *stage.Analysis, *stage.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, s.analysis, s.document
}

// Input builds the executor input for the named stage from stored results.
func (s *Session) Input(name string) stage.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	in := stage.Input{SessionID: s.id, Subject: s.subject}
	switch name {
	case stage.NameCTO:
		in.Profile = s.profile
	case stage.NameGhostwriter:
		in.Profile = s.profile
		in.Analysis = s.analysis
		in.Preferences = s.prefs
	}
	return in
}

// Snapshot is a point-in-time copy of a session's observable state.
type Snapshot struct {
	ID            string
	Subject       string
	Stage         Stage
	Preferences   stage.Preferences
	StyleSelected bool
	Subscribed    bool
	CreatedAt     time.Time
	LastActivity  time.Time
	Deadline      time.Time
	FinishedAt    time.Time
	Events        int
	Failure       *eventlog.ErrorPayload
}

// Snapshot returns the session's current observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:            s.id,
		Subject:       s.subject,
		Stage:         s.stage,
		Preferences:   s.prefs,
		StyleSelected: s.styleSelected,
		Subscribed:    s.subscribed,
		CreatedAt:     s.createdAt,
		LastActivity:  s.lastActivity,
		Deadline:      s.deadline,
		FinishedAt:    s.finishedAt,
		Events:        s.log.Len(),
	}
	if s.failure != nil {
		f := *s.failure
		snap.Failure = &f
	}
	return snap
}

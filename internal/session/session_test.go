package session_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quill/internal/eventlog"
	"quill/internal/services"
	"quill/internal/session"
	"quill/internal/stage"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newSession(t *testing.T) (*session.Session, *fixedClock) {
	t.Helper()
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := session.New(session.Options{
		ID:           "sess-1",
		Subject:      "octocat",
		Preferences:  stage.Preferences{Tone: stage.ToneProfessional},
		BaseDeadline: time.Minute,
		Now:          clock.Now,
	})
	return s, clock
}

func started(name string) eventlog.Event {
	return eventlog.Event{Kind: eventlog.KindStageStarted, Stage: name}
}

func driveToAwaiting(t *testing.T, s *session.Session) {
	t.Helper()
	if err := s.Transition(session.StageDetectiveRunning, started(stage.NameDetective)); err != nil {
		t.Fatalf("start detective: %v", err)
	}
	if err := s.Complete(stage.NameDetective, &stage.Profile{Login: "octocat"}, "profile ready"); err != nil {
		t.Fatalf("complete detective: %v", err)
	}
	if err := s.Transition(session.StageCTORunning, started(stage.NameCTO)); err != nil {
		t.Fatalf("start cto: %v", err)
	}
	if err := s.Complete(stage.NameCTO, &stage.Analysis{Archetype: stage.Archetype{Primary: "Go Developer"}}, "analysis ready"); err != nil {
		t.Fatalf("complete cto: %v", err)
	}
	if err := s.Transition(session.StageAwaitingStyle, eventlog.Event{Kind: eventlog.KindAwaitingInput}); err != nil {
		t.Fatalf("await style: %v", err)
	}
}

func TestCanTransitionEnumeratesEveryPair(t *testing.T) {
	allowed := map[[2]session.Stage]bool{
		{session.StageInit, session.StageDetectiveRunning}:             true,
		{session.StageDetectiveRunning, session.StageDetectiveDone}:    true,
		{session.StageDetectiveDone, session.StageCTORunning}:          true,
		{session.StageCTORunning, session.StageCTODone}:                true,
		{session.StageCTODone, session.StageAwaitingStyle}:             true,
		{session.StageAwaitingStyle, session.StageGhostwriterRunning}:  true,
		{session.StageGhostwriterRunning, session.StageDone}:           true,
	}
	for _, from := range session.AllStages() {
		for _, to := range session.AllStages() {
			want := allowed[[2]session.Stage{from, to}]
			if !from.Terminal() && (to == session.StageError || to == session.StageTimeout) {
				want = true
			}
			if got := session.CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestHappyPathReachesDoneAndClosesLog(t *testing.T) {
	s, _ := newSession(t)
	driveToAwaiting(t, s)

	if err := s.SelectStyle("creative", "likes rust", 5*time.Minute); err != nil {
		t.Fatalf("SelectStyle: %v", err)
	}
	select {
	case <-s.StyleSelected():
	default:
		t.Fatal("expected style channel to be closed")
	}
	if err := s.Transition(session.StageGhostwriterRunning, started(stage.NameGhostwriter)); err != nil {
		t.Fatalf("start ghostwriter: %v", err)
	}
	in := s.Input(stage.NameGhostwriter)
	if in.Preferences.Style != stage.StyleCreative || in.Analysis == nil || in.Profile == nil {
		t.Fatalf("unexpected ghostwriter input %+v", in)
	}
	if err := s.Complete(stage.NameGhostwriter, &stage.Document{Markdown: "# hi"}, "done"); err != nil {
		t.Fatalf("complete ghostwriter: %v", err)
	}

	if s.Stage() != session.StageDone {
		t.Fatalf("expected DONE, got %s", s.Stage())
	}
	if !s.Log().Closed() {
		t.Fatal("expected log to be closed")
	}
	events := s.Log().Snapshot()
	last := events[len(events)-1]
	if last.Kind != eventlog.KindSessionDone {
		t.Fatalf("expected session-done last, got %s", last.Kind)
	}
	if prev := events[len(events)-2]; prev.Kind != eventlog.KindStageCompleted || prev.Stage != stage.NameGhostwriter {
		t.Fatalf("expected ghostwriter completion before session-done, got %+v", prev)
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("expected done channel to be closed")
	}
	_, _, doc := s.Results()
	if doc == nil || doc.Markdown != "# hi" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestSelectStyleOutsideAwaitingIsInvalidState(t *testing.T) {
	s, _ := newSession(t)
	before := s.Snapshot()
	err := s.SelectStyle("creative", "", time.Minute)
	if !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	after := s.Snapshot()
	if after.StyleSelected || after.Preferences != before.Preferences || after.Events != before.Events {
		t.Fatalf("session mutated by rejected selection: %+v", after)
	}
}

func TestSelectStyleTwiceIsAlreadySelected(t *testing.T) {
	s, _ := newSession(t)
	driveToAwaiting(t, s)
	if err := s.SelectStyle("minimal", "", time.Minute); err != nil {
		t.Fatalf("first select: %v", err)
	}
	events := s.Snapshot().Events
	err := s.SelectStyle("detailed", "", time.Minute)
	if !errors.Is(err, services.ErrAlreadySelected) {
		t.Fatalf("expected already selected, got %v", err)
	}
	snap := s.Snapshot()
	if snap.Preferences.Style != stage.StyleMinimal {
		t.Fatalf("style overwritten: %s", snap.Preferences.Style)
	}
	if snap.Events != events {
		t.Fatalf("expected no new events, got %d -> %d", events, snap.Events)
	}
}

func TestSelectStyleRejectsUnknownStyle(t *testing.T) {
	s, _ := newSession(t)
	driveToAwaiting(t, s)
	if err := s.SelectStyle("baroque", "", time.Minute); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if s.Snapshot().StyleSelected {
		t.Fatal("style marked selected after validation failure")
	}
}

func TestSelectStyleExtendsDeadline(t *testing.T) {
	s, clock := newSession(t)
	driveToAwaiting(t, s)
	clock.Advance(30 * time.Second)
	if err := s.SelectStyle("professional", "", 5*time.Minute); err != nil {
		t.Fatalf("SelectStyle: %v", err)
	}
	want := clock.Now().Add(5 * time.Minute)
	if got := s.Snapshot().Deadline; !got.Equal(want) {
		t.Fatalf("expected deadline %v, got %v", want, got)
	}
}

func TestCompleteRejectsMismatchedResult(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Transition(session.StageDetectiveRunning, started(stage.NameDetective)); err != nil {
		t.Fatalf("start detective: %v", err)
	}
	err := s.Complete(stage.NameDetective, &stage.Document{}, "wrong")
	if !errors.Is(err, services.ErrStageFailure) {
		t.Fatalf("expected stage failure, got %v", err)
	}
	if s.Stage() != session.StageDetectiveRunning {
		t.Fatalf("stage changed to %s", s.Stage())
	}
}

func TestCompleteOutOfOrderIsInvalidState(t *testing.T) {
	s, _ := newSession(t)
	err := s.Complete(stage.NameCTO, &stage.Analysis{}, "early")
	if !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestTransitionRejectsIllegalEdge(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Transition(session.StageCTORunning, started(stage.NameCTO)); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if s.Log().Len() != 0 {
		t.Fatalf("expected no events after rejected transition, got %d", s.Log().Len())
	}
}

func TestTerminateFirstCallerWins(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Transition(session.StageDetectiveRunning, started(stage.NameDetective)); err != nil {
		t.Fatalf("start detective: %v", err)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := session.StageError
			kind := eventlog.KindError
			if i%2 == 0 {
				to = session.StageTimeout
				kind = eventlog.KindTimeout
			}
			if s.Terminate(to, eventlog.Event{Kind: kind}, services.ErrTimeout) {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
	terminal := 0
	for _, evt := range s.Log().Snapshot() {
		if evt.Kind.Terminal() {
			terminal++
		}
	}
	if terminal != 1 {
		t.Fatalf("expected one terminal event, got %d", terminal)
	}
	if s.Context().Err() == nil {
		t.Fatal("expected session context to be cancelled")
	}
}

func TestTerminateAfterDoneIsNoop(t *testing.T) {
	s, _ := newSession(t)
	driveToAwaiting(t, s)
	if err := s.SelectStyle("professional", "", time.Minute); err != nil {
		t.Fatalf("SelectStyle: %v", err)
	}
	if err := s.Transition(session.StageGhostwriterRunning, started(stage.NameGhostwriter)); err != nil {
		t.Fatalf("start ghostwriter: %v", err)
	}
	if err := s.Complete(stage.NameGhostwriter, &stage.Document{Markdown: "x"}, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if s.Terminate(session.StageTimeout, eventlog.Event{Kind: eventlog.KindTimeout}, nil) {
		t.Fatal("expected terminate after DONE to be rejected")
	}
	if s.Stage() != session.StageDone {
		t.Fatalf("expected DONE to stick, got %s", s.Stage())
	}
}

func TestTerminateRecordsFailurePayload(t *testing.T) {
	s, _ := newSession(t)
	payload := eventlog.ErrorPayload{Stage: stage.NameDetective, Message: "boom", Kind: "external_service"}
	if !s.Terminate(session.StageError, eventlog.Event{Kind: eventlog.KindError, Payload: payload}, errors.New("boom")) {
		t.Fatal("expected terminate to win")
	}
	snap := s.Snapshot()
	if snap.Failure == nil || snap.Failure.Message != "boom" {
		t.Fatalf("expected failure payload, got %+v", snap.Failure)
	}
	if cause := s.Context().Err(); cause == nil {
		t.Fatal("expected cancelled context")
	}
}

func TestProgressOnlyWhileRunning(t *testing.T) {
	s, _ := newSession(t)
	if err := s.Progress(stage.NameDetective, "early"); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if err := s.Transition(session.StageDetectiveRunning, started(stage.NameDetective)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Progress(stage.NameDetective, "fetching"); err != nil {
		t.Fatalf("Progress: %v", err)
	}
	events := s.Log().Snapshot()
	if events[len(events)-1].Kind != eventlog.KindStageProgress {
		t.Fatalf("expected progress event, got %s", events[len(events)-1].Kind)
	}
}

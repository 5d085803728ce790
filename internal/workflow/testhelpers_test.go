package workflow_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"quill/internal/archive"
	"quill/internal/broadcast"
	"quill/internal/config"
	"quill/internal/eventlog"
	"quill/internal/stage"
	"quill/internal/workflow"
)

type runFunc func(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error)

type stubExecutor struct {
	name   string
	run    runFunc
	health stage.Health

	mu    sync.Mutex
	calls int
	input stage.Input
}

func newStubExecutor(name string, run runFunc) *stubExecutor {
	return &stubExecutor{name: name, run: run, health: stage.Healthy(name)}
}

func (s *stubExecutor) Name() string { return s.name }

func (s *stubExecutor) Run(ctx context.Context, in stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
	s.mu.Lock()
	s.calls++
	s.input = in
	s.mu.Unlock()
	return s.run(ctx, in, progress)
}

func (s *stubExecutor) HealthCheck(context.Context) stage.Health { return s.health }

func (s *stubExecutor) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubExecutor) Input() stage.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func succeed(result stage.Result) runFunc {
	return func(_ context.Context, _ stage.Input, progress stage.ProgressFunc) (stage.Result, error) {
		progress("working")
		return result, nil
	}
}

func blockUntilCancelled(started chan<- struct{}, observed chan<- error) runFunc {
	return func(ctx context.Context, _ stage.Input, _ stage.ProgressFunc) (stage.Result, error) {
		close(started)
		<-ctx.Done()
		observed <- context.Cause(ctx)
		return nil, ctx.Err()
	}
}

type stageStubs struct {
	detective   *stubExecutor
	cto         *stubExecutor
	ghostwriter *stubExecutor
}

func defaultStubs() stageStubs {
	return stageStubs{
		detective: newStubExecutor(stage.NameDetective, succeed(&stage.Profile{
			Login:        "octocat",
			Repositories: []stage.Repository{{Name: "hello-world", Stars: 42, PrimaryLanguage: "Go"}},
		})),
		cto: newStubExecutor(stage.NameCTO, succeed(&stage.Analysis{
			Archetype: stage.Archetype{Primary: "Go Developer", FullTitle: "Go Developer"},
			Headline:  "Go Developer | Building impactful solutions",
		})),
		ghostwriter: newStubExecutor(stage.NameGhostwriter, func(_ context.Context, in stage.Input, _ stage.ProgressFunc) (stage.Result, error) {
			return &stage.Document{Markdown: "# Hi, I'm " + in.Profile.Login, Style: in.Preferences.Style, Tone: in.Preferences.Tone}, nil
		}),
	}
}

func (s stageStubs) set() workflow.StageSet {
	return workflow.StageSet{Detective: s.detective, CTO: s.cto, Ghostwriter: s.ghostwriter}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingArchive struct {
	mu      sync.Mutex
	records []archive.Record
}

func (r *recordingArchive) Save(_ context.Context, rec archive.Record) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return nil
}

func (r *recordingArchive) Records() []archive.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]archive.Record, len(r.records))
	copy(out, r.records)
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *recordingNotifier) NotifySessionCompleted(_ context.Context, subject, _ string, _ time.Duration) error {
	n.mu.Lock()
	n.completed = append(n.completed, subject)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) NotifySessionFailed(_ context.Context, subject, _ string, _ error) error {
	n.mu.Lock()
	n.failed = append(n.failed, subject)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

func (n *recordingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.completed), len(n.failed)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.GitHub.Token = "test"
	cfg.Session.SupervisorIntervalMillis = 5
	return &cfg
}

type harness struct {
	mgr      *workflow.Manager
	clock    *fakeClock
	stubs    stageStubs
	archive  *recordingArchive
	notifier *recordingNotifier
}

func newHarness(t *testing.T, cfg *config.Config, stubs stageStubs) *harness {
	t.Helper()
	if cfg == nil {
		cfg = testConfig(t)
	}
	h := &harness{
		clock:    newFakeClock(),
		stubs:    stubs,
		archive:  &recordingArchive{},
		notifier: &recordingNotifier{},
	}
	h.mgr = workflow.NewManager(cfg, nil,
		workflow.WithClock(h.clock.Now),
		workflow.WithRecorder(h.archive),
		workflow.WithNotifier(h.notifier),
	)
	h.mgr.ConfigureStages(stubs.set())
	if err := h.mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(h.mgr.Stop)
	return h
}

// readUntil consumes events until stop returns true or the stream ends.
func readUntil(t *testing.T, sub *broadcast.Subscription, stop func(eventlog.Event) bool) []eventlog.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var out []eventlog.Event
	for {
		batch, err := sub.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v (events so far %v)", err, kinds(out))
		}
		for _, evt := range batch {
			out = append(out, evt)
			if stop != nil && stop(evt) {
				return out
			}
		}
	}
}

func kinds(events []eventlog.Event) []string {
	out := make([]string, 0, len(events))
	for _, evt := range events {
		label := string(evt.Kind)
		if evt.Stage != "" {
			label += "(" + evt.Stage + ")"
		}
		out = append(out, label)
	}
	return out
}

func withoutProgress(events []eventlog.Event) []string {
	filtered := make([]eventlog.Event, 0, len(events))
	for _, evt := range events {
		if evt.Kind != eventlog.KindStageProgress {
			filtered = append(filtered, evt)
		}
	}
	return kinds(filtered)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

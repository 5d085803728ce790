package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"quill/internal/api"
	"quill/internal/logging"
	"quill/internal/stage"
	"quill/internal/testsupport"
	"quill/internal/workflow"
)

type steppedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *steppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type heartbeatSink struct {
	beats chan struct{}
}

func (s *heartbeatSink) send(evt *api.Event) error {
	if evt == nil {
		select {
		case s.beats <- struct{}{}:
		default:
		}
	}
	return nil
}

func (s *heartbeatSink) end() error { return nil }

func TestKeepaliveTouchesSession(t *testing.T) {
	clock := &steppedClock{now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	mgr := workflow.NewManager(testsupport.NewConfig(t), nil, workflow.WithClock(clock.Now))
	stages := testsupport.StubStages()
	stages.Detective = testsupport.FuncExecutor{StageName: stage.NameDetective, RunFunc: func(ctx context.Context, _ stage.Input, _ stage.ProgressFunc) (stage.Result, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	mgr.ConfigureStages(stages)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)

	s, err := mgr.StartSession(context.Background(), "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	sub, err := mgr.Subscribe(s.ID())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	clock.Advance(10 * time.Second)
	want := clock.Now()

	srv := &apiServer{logger: logging.NewNop(), daemon: &Daemon{workflow: mgr}, heartbeat: 5 * time.Millisecond}
	sink := &heartbeatSink{beats: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.pump(ctx, sub, sink)
	}()

	select {
	case <-sink.beats:
	case <-time.After(2 * time.Second):
		t.Fatal("no keepalive sent")
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if snap := s.Snapshot(); snap.LastActivity.Equal(want) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected last activity %v, got %v", want, s.Snapshot().LastActivity)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

package registry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"quill/internal/eventlog"
	"quill/internal/registry"
	"quill/internal/services"
	"quill/internal/session"
	"quill/internal/stage"
)

func TestValidateSubject(t *testing.T) {
	valid := []string{"octocat", "a", "Foo-Bar", "x1-2-3", "abcdefghijabcdefghijabcdefghijabcdefghi"}
	for _, login := range valid {
		if err := registry.ValidateSubject(login); err != nil {
			t.Fatalf("expected %q to be valid, got %v", login, err)
		}
	}
	invalid := []string{"", "-lead", "trail-", "dou--ble", "has space", "émile", "abcdefghijabcdefghijabcdefghijabcdefghij"}
	for _, login := range invalid {
		err := registry.ValidateSubject(login)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("expected %q to be rejected as invalid input, got %v", login, err)
		}
	}
}

func TestCreateAssignsUUIDAndInitStage(t *testing.T) {
	reg := registry.New(registry.Options{Capacity: 4, BaseDeadline: time.Minute})
	s, err := reg.Create(context.Background(), " octocat ", stage.Preferences{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(s.ID()) != 36 {
		t.Fatalf("expected uuid id, got %q", s.ID())
	}
	if s.Subject() != "octocat" {
		t.Fatalf("expected trimmed subject, got %q", s.Subject())
	}
	if s.Stage() != session.StageInit {
		t.Fatalf("expected INIT, got %s", s.Stage())
	}
	if s.Preferences().Tone != stage.ToneProfessional {
		t.Fatalf("expected default tone, got %q", s.Preferences().Tone)
	}
	got, err := reg.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}
}

func TestCreateRejectsUnknownToneAndStyle(t *testing.T) {
	reg := registry.New(registry.Options{})
	if _, err := reg.Create(context.Background(), "octocat", stage.Preferences{Tone: "shouty"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected invalid tone, got %v", err)
	}
	if _, err := reg.Create(context.Background(), "octocat", stage.Preferences{Style: "rococo"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected invalid style, got %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected nothing registered, got %d", reg.Len())
	}
}

func TestCreateAtCapacityIsUnavailable(t *testing.T) {
	reg := registry.New(registry.Options{Capacity: 2})
	for i := 0; i < 2; i++ {
		if _, err := reg.Create(context.Background(), "octocat", stage.Preferences{}); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	_, err := reg.Create(context.Background(), "octocat", stage.Preferences{})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if services.Details(err).Hint == "" {
		t.Fatal("expected capacity error to carry a hint")
	}
}

func TestFinishedSessionsDoNotCountAgainstCapacity(t *testing.T) {
	reg := registry.New(registry.Options{Capacity: 1})
	first, err := reg.Create(context.Background(), "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !first.Terminate(session.StageError, eventlog.Event{Kind: eventlog.KindError, Message: "boom"}, nil) {
		t.Fatal("expected terminate to succeed")
	}
	if reg.Len() != 1 || reg.Active() != 0 {
		t.Fatalf("expected retained finished session, len=%d active=%d", reg.Len(), reg.Active())
	}

	second, err := reg.Create(context.Background(), "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("expected room once the first session finished, got %v", err)
	}
	if _, err := reg.Create(context.Background(), "octocat", stage.Preferences{}); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable while %s is running, got %v", second.ID(), err)
	}
}

func TestCreateRetriesOnIDCollision(t *testing.T) {
	ids := []string{"same", "same", "other"}
	var mu sync.Mutex
	reg := registry.New(registry.Options{NewID: func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}})
	first, err := reg.Create(context.Background(), "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := reg.Create(context.Background(), "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.ID() != "same" || second.ID() != "other" {
		t.Fatalf("unexpected ids %q and %q", first.ID(), second.ID())
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	reg := registry.New(registry.Options{})
	if _, err := reg.Get("missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveIsIdempotentAndCancels(t *testing.T) {
	reg := registry.New(registry.Options{})
	s, err := reg.Create(context.Background(), "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !reg.Remove(s.ID()) {
		t.Fatal("expected first Remove to report removal")
	}
	if reg.Remove(s.ID()) {
		t.Fatal("expected second Remove to be a no-op")
	}
	if s.Context().Err() == nil {
		t.Fatal("expected session context cancelled")
	}
	if !errors.Is(context.Cause(s.Context()), services.ErrCancelled) {
		t.Fatalf("expected cancelled cause, got %v", context.Cause(s.Context()))
	}
}

func TestSessionSurvivesRequestContext(t *testing.T) {
	reg := registry.New(registry.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	s, err := reg.Create(ctx, "octocat", stage.Preferences{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	cancel()
	if s.Context().Err() != nil {
		t.Fatal("session context must not follow the request context")
	}
}

func TestConcurrentCreateRespectsCapacity(t *testing.T) {
	const capacity = 10
	reg := registry.New(registry.Options{Capacity: capacity})
	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reg.Create(context.Background(), fmt.Sprintf("user%d", i), stage.Preferences{})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, services.ErrUnavailable):
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if created != capacity || reg.Len() != capacity {
		t.Fatalf("expected %d sessions, created %d, registered %d", capacity, created, reg.Len())
	}
}

package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quill/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "detective", "fetch user", "graphql failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"detective", "fetch user", "graphql failed", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestDetailsExtractsContext(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "detective", "fetch user", "no such login", nil)
	err = services.WithHint(err, "check the username spelling")
	wrapped := fmt.Errorf("pipeline: %w", err)

	details := services.Details(wrapped)
	if details.Kind != services.KindNotFound {
		t.Fatalf("expected not_found kind, got %q", details.Kind)
	}
	if details.Stage != "detective" || details.Operation != "fetch user" {
		t.Fatalf("unexpected stage/operation: %+v", details)
	}
	if details.Message != "no such login" {
		t.Fatalf("unexpected message %q", details.Message)
	}
	if details.Hint != "check the username spelling" {
		t.Fatalf("unexpected hint %q", details.Hint)
	}
}

func TestKindOfPlainErrors(t *testing.T) {
	if kind := services.KindOf(nil); kind != "" {
		t.Fatalf("expected empty kind for nil, got %q", kind)
	}
	if kind := services.KindOf(errors.New("x")); kind != services.KindUnknown {
		t.Fatalf("expected unknown, got %q", kind)
	}
	if kind := services.KindOf(fmt.Errorf("wrap: %w", services.ErrAlreadySelected)); kind != services.KindAlreadySelected {
		t.Fatalf("expected already_selected, got %q", kind)
	}
	if kind := services.KindOf(context.Canceled); kind != services.KindUnknown {
		t.Fatalf("context errors are not classified, got %q", kind)
	}
}

func TestKindPrefersSpecificMarkerOverStageFailure(t *testing.T) {
	inner := services.Wrap(services.ErrTimeout, "ghostwriter", "complete", "llm timed out", nil)
	err := services.Wrap(services.ErrStageFailure, "ghostwriter", "run", "executor failed", inner)
	if kind := services.KindOf(err); kind != services.KindTimeout {
		t.Fatalf("expected timeout kind, got %q", kind)
	}
}

func TestMarkerForRoundTripsKinds(t *testing.T) {
	for _, marker := range []error{
		services.ErrValidation, services.ErrNotFound, services.ErrInvalidState, services.ErrAlreadySelected,
		services.ErrNotReady, services.ErrUnavailable, services.ErrStageFailure,
	} {
		kind := services.KindOf(marker)
		if got := services.MarkerFor(kind); got != marker {
			t.Fatalf("kind %s: expected %v, got %v", kind, marker, got)
		}
	}
	if got := services.MarkerFor("bogus"); got != services.ErrTransient {
		t.Fatalf("expected transient fallback, got %v", got)
	}
}

package ipc_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/api"
	"quill/internal/config"
	"quill/internal/daemon"
	"quill/internal/ipc"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/testsupport"
	"quill/internal/workflow"
)

func startDaemon(t *testing.T, token string) *ipc.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))

	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, logger)
	mgr.ConfigureStages(testsupport.StubStages())
	d, err := daemon.New(cfg, logger, mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	client, err := ipc.New("http://"+d.Address(), token)
	if err != nil {
		t.Fatalf("ipc.New: %v", err)
	}
	return client
}

func TestClientDrivesSessionToCompletion(t *testing.T) {
	client := startDaemon(t, "tok")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	started, err := client.Generate(ctx, api.GenerateRequest{Username: "octocat"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := client.Result(ctx, started.SessionID); !errors.Is(err, services.ErrNotReady) {
		t.Fatalf("expected not ready before the stream finishes, got %v", err)
	}

	var kinds []string
	err = client.Stream(ctx, started.SessionID, func(evt api.Event) error {
		kinds = append(kinds, evt.Kind)
		if evt.Kind == "awaiting-input" {
			_, err := client.SelectStyle(ctx, started.SessionID, "minimal", "")
			return err
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(kinds) == 0 || kinds[len(kinds)-1] != "session-done" {
		t.Fatalf("expected stream to end with session-done, got %v", kinds)
	}

	result, err := client.Result(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if result.Document == nil || result.Document.Markdown != "# Hi, I'm octocat" || result.Document.Style != "minimal" {
		t.Fatalf("unexpected result %+v", result.Document)
	}

	status, err := client.Status(ctx, false)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}

	if err := client.Cleanup(ctx, started.SessionID); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := client.Session(ctx, started.SessionID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found after cleanup, got %v", err)
	}
}

func TestClientDecodesValidationErrors(t *testing.T) {
	client := startDaemon(t, "")
	_, err := client.Generate(context.Background(), api.GenerateRequest{Username: "-bad-"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var apiErr *ipc.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Fatalf("expected *ipc.Error with 400, got %#v", err)
	}
}

func TestClientReportsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := ipc.New(server.URL, "")
	if err != nil {
		t.Fatalf("ipc.New: %v", err)
	}
	_, err = client.History(context.Background(), 5)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientReportsUnreachableDaemon(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := ipc.New(url, "")
	if err != nil {
		t.Fatalf("ipc.New: %v", err)
	}
	_, err = client.Health(context.Background())
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestDialRequiresBind(t *testing.T) {
	cfg := config.Default()
	cfg.API.Bind = ""
	if _, err := ipc.Dial(&cfg); err == nil {
		t.Fatal("expected error for empty bind")
	}
	cfg.API.Bind = "127.0.0.1:7488"
	if _, err := ipc.Dial(&cfg); err != nil {
		t.Fatalf("Dial: %v", err)
	}
}

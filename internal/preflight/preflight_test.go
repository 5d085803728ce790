package preflight_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/preflight"
	"quill/internal/services"
	"quill/internal/services/github"
)

type fakeViewer struct {
	viewer github.Viewer
	err    error
}

func (f fakeViewer) Viewer(context.Context) (github.Viewer, error) { return f.viewer, f.err }

type fakeCompleter struct {
	err error
}

func (fakeCompleter) Complete(context.Context, string, string) (string, error) { return "", nil }
func (f fakeCompleter) HealthCheck(context.Context) error                      { return f.err }
func (fakeCompleter) Provider() string                                         { return "openai" }

type pingCache struct {
	cache.Noop
	err error
}

func (p pingCache) Ping(context.Context) error { return p.err }

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := preflight.CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := preflight.CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckGitHub(t *testing.T) {
	ok := preflight.CheckGitHub(context.Background(), fakeViewer{viewer: github.Viewer{Login: "octocat", Remaining: 4900, Limit: 5000}})
	if !ok.Passed || !strings.Contains(ok.Detail, "octocat") {
		t.Fatalf("expected pass naming the viewer, got %+v", ok)
	}

	low := preflight.CheckGitHub(context.Background(), fakeViewer{viewer: github.Viewer{Login: "octocat", Remaining: 3, Limit: 5000}})
	if low.Passed {
		t.Fatalf("expected low quota to fail, got %+v", low)
	}

	authErr := services.WithHint(
		services.Wrap(services.ErrConfiguration, "github", "viewer", "bad credentials", nil),
		"set github.token",
	)
	failed := preflight.CheckGitHub(context.Background(), fakeViewer{err: authErr})
	if failed.Passed {
		t.Fatal("expected failure for auth error")
	}
	if !strings.Contains(failed.Detail, "bad credentials") || !strings.Contains(failed.Detail, "set github.token") {
		t.Fatalf("expected message and hint in detail, got %q", failed.Detail)
	}
}

func TestCheckLLM(t *testing.T) {
	template := preflight.CheckLLM(context.Background(), nil)
	if !template.Passed || !strings.Contains(template.Detail, "template") {
		t.Fatalf("expected template renderer to pass, got %+v", template)
	}

	ok := preflight.CheckLLM(context.Background(), fakeCompleter{})
	if !ok.Passed {
		t.Fatalf("expected pass, got %+v", ok)
	}

	failed := preflight.CheckLLM(context.Background(), fakeCompleter{err: context.DeadlineExceeded})
	if failed.Passed || !strings.Contains(failed.Detail, "timed out") {
		t.Fatalf("expected timeout failure, got %+v", failed)
	}
}

func TestCheckRedis(t *testing.T) {
	if r := preflight.CheckRedis(context.Background(), "localhost:6379", pingCache{}); !r.Passed {
		t.Fatalf("expected pass, got %+v", r)
	}
	if r := preflight.CheckRedis(context.Background(), "localhost:6379", pingCache{err: errors.New("connection refused")}); r.Passed {
		t.Fatalf("expected failure, got %+v", r)
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Cache.RedisAddr = ""

	results := preflight.RunAll(context.Background(), &cfg, preflight.Probes{
		GitHub: fakeViewer{viewer: github.Viewer{Login: "octocat", Remaining: 5000, Limit: 5000}},
	})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if preflight.Failed(results) {
		t.Fatalf("expected all checks to pass, got %+v", results)
	}
	if results[4].Detail != "Disabled" {
		t.Fatalf("expected disabled cache, got %+v", results[4])
	}

	cfg.Cache.RedisAddr = "localhost:6379"
	results = preflight.RunAll(context.Background(), &cfg, preflight.Probes{
		Cache: pingCache{err: errors.New("refused")},
	})
	if !preflight.Failed(results) {
		t.Fatal("expected failures without github client and with a dead cache")
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := preflight.RunAll(context.Background(), nil, preflight.Probes{}); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}

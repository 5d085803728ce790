package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quill/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("QUILL_LLM_API_KEYS", "")
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.GitHub.Token != "ghp_test" {
		t.Fatalf("expected GITHUB_TOKEN fallback, got %q", cfg.GitHub.Token)
	}
	if cfg.BaseDeadline() != 60*time.Second {
		t.Fatalf("unexpected base deadline %s", cfg.BaseDeadline())
	}
	if cfg.ExtendedDeadline() != 5*time.Minute {
		t.Fatalf("unexpected extended deadline %s", cfg.ExtendedDeadline())
	}
	if cfg.Retention() != 5*time.Minute {
		t.Fatalf("unexpected retention %s", cfg.Retention())
	}
	if cfg.ReplayWindow() != 30*time.Second {
		t.Fatalf("unexpected replay window %s", cfg.ReplayWindow())
	}
	if cfg.API.Bind != "127.0.0.1:7488" {
		t.Fatalf("unexpected bind %q", cfg.API.Bind)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) || strings.Contains(cfg.Paths.DataDir, "~") {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
	if cfg.GenerationEnabled() {
		t.Fatal("expected generation disabled without api keys")
	}
}

func TestLoadParsesSections(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	dir := t.TempDir()
	path := writeConfig(t, `
[paths]
data_dir = "`+dir+`/data"
log_dir = "`+dir+`/logs"

[session]
base_deadline_seconds = 30
extended_deadline_seconds = 120
idle_timeout_seconds = 45
retention_seconds = 0
timeout_replay_seconds = 5
max_sessions = 4
supervisor_interval_ms = 100

[github]
token = "  ghp_file  "
max_repos = 10
requests_per_second = 2.5

[llm]
provider = "Anthropic"
api_keys = ["k1", " k2 ", "k1", ""]

[logging]
format = "JSON"
level = "DEBUG"
`)

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.GitHub.Token != "ghp_file" {
		t.Fatalf("expected trimmed token, got %q", cfg.GitHub.Token)
	}
	if cfg.LLM.Provider != config.ProviderAnthropic {
		t.Fatalf("expected anthropic provider, got %q", cfg.LLM.Provider)
	}
	if got := strings.Join(cfg.LLM.APIKeys, ","); got != "k1,k2" {
		t.Fatalf("expected deduplicated keys, got %q", got)
	}
	if cfg.LLM.Model == "" {
		t.Fatal("expected provider default model")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.ReplayWindow() != 5*time.Second {
		t.Fatalf("unexpected replay window %s", cfg.ReplayWindow())
	}
	if cfg.SupervisorInterval() != 100*time.Millisecond {
		t.Fatalf("unexpected supervisor interval %s", cfg.SupervisorInterval())
	}
	if cfg.ArchivePath() != filepath.Join(dir, "data", "archive.db") {
		t.Fatalf("unexpected archive path %q", cfg.ArchivePath())
	}
	if !cfg.GenerationEnabled() {
		t.Fatal("expected generation enabled with keys")
	}
}

func TestLoadRequiresGitHubToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	path := writeConfig(t, "[github]\ntoken = \"\"\n")
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "github.token") {
		t.Fatalf("expected github.token error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"provider", func(c *config.Config) { c.LLM.Provider = "cohere" }, "llm.provider"},
		{"deadline", func(c *config.Config) { c.Session.BaseDeadlineSeconds = 0 }, "session.base_deadline_seconds"},
		{"capacity", func(c *config.Config) { c.Session.MaxSessions = 0 }, "session.max_sessions"},
		{"replay", func(c *config.Config) { c.Session.TimeoutReplaySeconds = -1 }, "session.timeout_replay_seconds"},
		{"repos", func(c *config.Config) { c.GitHub.MaxRepos = 500 }, "github.max_repos"},
		{"temperature", func(c *config.Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.GitHub.Token = "ghp_test"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %s error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if !cfg.Archive.Enabled {
		t.Fatal("expected archive enabled in sample")
	}
}

package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quill/internal/api"
	"quill/internal/services"
)

func TestGenerateWritesReadmeToStdout(t *testing.T) {
	env := setupCLITestEnv(t)

	out, errOut, err := runCLI(t, []string{"generate", "octocat", "--style", "minimal", "--tone", "genz"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v\nstderr: %s", err, errOut)
	}
	if out != "# Hi, I'm octocat\n" {
		t.Fatalf("unexpected readme %q", out)
	}
	requireContains(t, errOut, "▶ detective")
	requireContains(t, errOut, "Investigating hello-world")
	requireContains(t, errOut, "✔ ghostwriter")

	id := sessionIDFrom(t, errOut)
	_, _, err = runCLI(t, []string{"result", id}, env.daemonURL, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected session to be released after generate, got %v", err)
	}
}

func TestGenerateWritesOutputFileAndKeepsSession(t *testing.T) {
	env := setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "README.md")

	_, errOut, err := runCLI(t, []string{"generate", "octocat", "--style", "detailed", "--keep", "-o", target}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("generate: %v\nstderr: %s", err, errOut)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Hi, I'm octocat") {
		t.Fatalf("unexpected file content %q", data)
	}
	requireContains(t, errOut, "README written to "+target)

	id := sessionIDFrom(t, errOut)

	out, _, err := runCLI(t, []string{"result", id, "--format", "json"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("result json: %v", err)
	}
	var result api.SessionResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if result.Username != "octocat" || result.Document == nil || result.Document.Style != "detailed" {
		t.Fatalf("unexpected result %+v", result)
	}

	out, _, err = runCLI(t, []string{"result", id, "--format", "table"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("result table: %v", err)
	}
	requireContains(t, out, "Go Developer | Building impactful solutions")
	requireContains(t, out, "hello-world")

	out, _, err = runCLI(t, []string{"result", id, "--format", "yaml"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("result yaml: %v", err)
	}
	requireContains(t, out, "username: octocat")

	if _, _, err := runCLI(t, []string{"result", id, "--format", "xml"}, env.daemonURL, env.configPath); err == nil {
		t.Fatal("expected unknown format to fail")
	}

	out, _, err = runCLI(t, []string{"cleanup", id}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "released")
}

func TestGenerateRejectsInvalidUsername(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"generate", "bad_user", "--style", "minimal"}, env.daemonURL, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStyleCommandRejectsUnknownSession(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"style", "missing", "minimal"}, env.daemonURL, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryListsArchivedSessions(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, errOut, err := runCLI(t, []string{"generate", "octocat", "--style", "creative"}, env.daemonURL, env.configPath); err != nil {
		t.Fatalf("generate: %v\nstderr: %s", err, errOut)
	}

	var out string
	waitFor(t, 3*time.Second, func() bool {
		var err error
		out, _, err = runCLI(t, []string{"history"}, env.daemonURL, env.configPath)
		return err == nil && strings.Contains(out, "@octocat")
	})
	requireContains(t, out, "DONE")
	requireContains(t, out, "creative")

	out, _, err := runCLI(t, []string{"history", "--json", "--limit", "1"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("history json: %v", err)
	}
	var resp api.HistoryResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(resp.Entries) != 1 || resp.Entries[0].Username != "octocat" {
		t.Fatalf("unexpected history %+v", resp.Entries)
	}
}

func TestStatusShowsDaemonAndStages(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon:")
	requireContains(t, out, "[OK] Running")
	requireContains(t, out, "0 of ")
	for _, name := range []string{"detective", "cto", "ghostwriter"} {
		requireContains(t, out, name+":")
	}

	out, _, err = runCLI(t, []string{"status", "--json"}, env.daemonURL, env.configPath)
	if err != nil {
		t.Fatalf("status json: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || len(status.Workflow.StageHealth) != 3 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStatusReportsOfflineDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, "http://127.0.0.1:1", env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
}

func TestStopWhenDaemonOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stop"}, "http://127.0.0.1:1", env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestStartRequiresDaemonBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	_, _, err := runCLI(t, []string{"start"}, env.daemonURL, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "quilld") {
		t.Fatalf("expected missing quilld binary error, got %v", err)
	}
}

package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"quill/internal/config"
	"quill/internal/services"
	"quill/internal/services/llm"
)

type recorded struct {
	mu      sync.Mutex
	paths   []string
	auth    []string
	payload map[string]any
}

func (r *recorded) add(req *http.Request, header string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, req.URL.Path)
	r.auth = append(r.auth, req.Header.Get(header))
	body, _ := io.ReadAll(req.Body)
	_ = json.Unmarshal(body, &r.payload)
}

func openAIServer(t *testing.T, status int, content string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r, "Authorization")
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "demo",
			"choices": []any{map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func llmConfig(provider, baseURL string, keys ...string) config.LLM {
	cfg := config.Default().LLM
	cfg.Provider = provider
	cfg.BaseURL = baseURL
	cfg.APIKeys = keys
	cfg.Model = "demo"
	cfg.MaxRetries = 0
	return cfg
}

func TestNewReturnsNilWithoutKeysOrForTemplate(t *testing.T) {
	if c := llm.New(llmConfig(config.ProviderOpenAI, "")); c != nil {
		t.Fatalf("expected nil completer without keys, got %T", c)
	}
	if c := llm.New(llmConfig(config.ProviderTemplate, "", "k1")); c != nil {
		t.Fatalf("expected nil completer for template provider, got %T", c)
	}
}

func TestOpenAICompleteRotatesKeys(t *testing.T) {
	server, rec := openAIServer(t, http.StatusOK, "# Hello")
	c := llm.New(llmConfig(config.ProviderOpenAI, server.URL, "k1", "k2"))
	if c == nil || c.Provider() != config.ProviderOpenAI {
		t.Fatalf("expected openai completer, got %v", c)
	}

	for i := 0; i < 3; i++ {
		out, err := c.Complete(context.Background(), "system", "user")
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if out != "# Hello" {
			t.Fatalf("unexpected content %q", out)
		}
	}
	want := []string{"Bearer k1", "Bearer k2", "Bearer k1"}
	for i, got := range rec.auth {
		if got != want[i] {
			t.Fatalf("request %d used %q, want %q", i, got, want[i])
		}
	}
	if rec.paths[0] != "/chat/completions" {
		t.Fatalf("unexpected path %q", rec.paths[0])
	}
	if rec.payload["model"] != "demo" {
		t.Fatalf("unexpected payload %v", rec.payload)
	}
}

func TestOpenAIEmptyContentIsExternalFailure(t *testing.T) {
	server, _ := openAIServer(t, http.StatusOK, "")
	c := llm.New(llmConfig(config.ProviderOpenAI, server.URL, "k1"))
	_, err := c.Complete(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
}

func TestOpenAIUnauthorizedIsConfigurationError(t *testing.T) {
	server, rec := openAIServer(t, http.StatusUnauthorized, "")
	c := llm.New(llmConfig(config.ProviderOpenAI, server.URL, "bad"))
	err := c.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.Details(err).Hint == "" {
		t.Fatal("expected operator hint")
	}
	if len(rec.paths) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(rec.paths))
	}
}

func TestOpenAIRateLimitIsTransient(t *testing.T) {
	server, _ := openAIServer(t, http.StatusTooManyRequests, "")
	c := llm.New(llmConfig(config.ProviderOpenAI, server.URL, "k1"))
	_, err := c.Complete(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestCompleteRequiresPrompts(t *testing.T) {
	server, rec := openAIServer(t, http.StatusOK, "ok")
	c := llm.New(llmConfig(config.ProviderOpenAI, server.URL, "k1"))
	if _, err := c.Complete(context.Background(), " ", "user"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(rec.paths) != 0 {
		t.Fatal("expected no request for invalid prompts")
	}
}

func TestAnthropicComplete(t *testing.T) {
	rec := &recorded{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r, "X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "demo",
			"stop_reason": "end_turn",
			"content": []any{
				map[string]any{"type": "text", "text": "# Hi "},
				map[string]any{"type": "text", "text": "there"},
			},
			"usage": map[string]any{"input_tokens": 1, "output_tokens": 2},
		})
	}))
	t.Cleanup(server.Close)

	c := llm.New(llmConfig(config.ProviderAnthropic, server.URL, "a1", "a2"))
	for _, wantKey := range []string{"a1", "a2"} {
		out, err := c.Complete(context.Background(), "system", "user")
		if err != nil {
			t.Fatalf("Complete: %v", err)
		}
		if out != "# Hi there" {
			t.Fatalf("unexpected content %q", out)
		}
		if got := rec.auth[len(rec.auth)-1]; got != wantKey {
			t.Fatalf("expected key %q, got %q", wantKey, got)
		}
	}
	if rec.paths[0] != "/v1/messages" {
		t.Fatalf("unexpected path %q", rec.paths[0])
	}
	system, _ := rec.payload["system"].([]any)
	if len(system) != 1 {
		t.Fatalf("expected system block, got %v", rec.payload["system"])
	}
}

func TestKeyRotator(t *testing.T) {
	r := llm.NewKeyRotator([]string{" a ", "", "b", "a"})
	if r.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", r.Len())
	}
	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, r.Next())
	}
	want := []string{"a", "b", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation %v, want %v", got, want)
		}
	}
	if llm.NewKeyRotator(nil).Next() != "" {
		t.Fatal("expected empty key from empty rotator")
	}
}

func TestKeyRotatorConcurrent(t *testing.T) {
	r := llm.NewKeyRotator([]string{"a", "b"})
	counts := map[string]int{}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := r.Next()
			mu.Lock()
			counts[key]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if counts["a"] != 50 || counts["b"] != 50 {
		t.Fatalf("expected even distribution, got %v", counts)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"# Title":                        "# Title",
		"```markdown\n# Title\nbody\n```": "# Title\nbody",
		"```\n# Title\n```\n":             "# Title",
		"```md\n# Title":                  "# Title",
	}
	for in, want := range tests {
		if got := llm.StripCodeFence(in); got != want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

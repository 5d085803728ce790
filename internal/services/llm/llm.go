package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"

	"quill/internal/config"
	"quill/internal/services"
)

const (
	serviceName        = "llm"
	defaultHTTPTimeout = 60 * time.Second
	healthPrompt       = "Reply with the single word OK."
)

// Completer produces a text completion for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	HealthCheck(ctx context.Context) error
	Provider() string
}

// Option customizes provider construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient routes provider traffic through client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// New returns the configured provider, or nil when README generation should
// use the template renderer.
func New(cfg config.LLM, opts ...Option) Completer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	keys := NewKeyRotator(cfg.APIKeys)
	if keys.Len() == 0 {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case config.ProviderOpenAI:
		return newOpenAI(cfg, keys, o)
	case config.ProviderAnthropic:
		return newAnthropic(cfg, keys, o)
	default:
		return nil
	}
}

func timeout(cfg config.LLM) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return defaultHTTPTimeout
}

func validatePrompts(system, user string) error {
	if strings.TrimSpace(system) == "" {
		return services.Wrap(services.ErrValidation, serviceName, "complete", "system prompt required", nil)
	}
	if strings.TrimSpace(user) == "" {
		return services.Wrap(services.ErrValidation, serviceName, "complete", "user prompt required", nil)
	}
	return nil
}

// classify maps SDK errors onto service markers. Context errors pass
// through untouched so callers can tell cancellation from failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	status := 0
	var openaiErr *openai.Error
	var anthropicErr *anthropic.Error
	switch {
	case errors.As(err, &openaiErr):
		status = openaiErr.StatusCode
	case errors.As(err, &anthropicErr):
		status = anthropicErr.StatusCode
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.WithHint(
			services.Wrap(services.ErrConfiguration, serviceName, op, "provider rejected credentials", err),
			"check llm.api_keys or QUILL_LLM_API_KEYS",
		)
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrTransient, serviceName, op, "provider rate limited", err)
	default:
		return services.Wrap(services.ErrExternalService, serviceName, op, "provider request failed", err)
	}
}

func emptyContent(op, provider, reason string) error {
	return services.Wrap(services.ErrExternalService, serviceName, op,
		provider+" returned empty content (finish_reason="+reason+")", nil)
}

package llm

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"quill/internal/config"
)

const defaultAnthropicMaxTokens = 2048

type anthropicProvider struct {
	messages *anthropic.MessageService
	keys     *KeyRotator
	cfg      config.LLM
}

func newAnthropic(cfg config.LLM, keys *KeyRotator, o options) *anthropicProvider {
	opts := []option.RequestOption{
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
		option.WithRequestTimeout(timeout(cfg)),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	if o.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(o.httpClient))
	}
	client := anthropic.NewClient(opts...)
	return &anthropicProvider{messages: &client.Messages, keys: keys, cfg: cfg}
}

func (p *anthropicProvider) Provider() string { return config.ProviderAnthropic }

func (p *anthropicProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if err := validatePrompts(system, user); err != nil {
		return "", err
	}
	return p.complete(ctx, "complete", system, user, p.cfg.MaxTokens)
}

func (p *anthropicProvider) HealthCheck(ctx context.Context) error {
	_, err := p.complete(ctx, "health", "You are a health check.", healthPrompt, 8)
	return err
}

func (p *anthropicProvider) complete(ctx context.Context, op, system, user string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.cfg.Model),
		MaxTokens: int64(maxTokens),
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
	}
	if p.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(p.cfg.Temperature)
	}
	msg, err := p.messages.New(ctx, params, option.WithAPIKey(p.keys.Next()))
	if err != nil {
		return "", classify(op, err)
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(b.String())
	if content == "" {
		return "", emptyContent(op, config.ProviderAnthropic, string(msg.StopReason))
	}
	return content, nil
}

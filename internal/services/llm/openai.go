package llm

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"quill/internal/config"
)

type openAIProvider struct {
	client openai.Client
	keys   *KeyRotator
	cfg    config.LLM
}

func newOpenAI(cfg config.LLM, keys *KeyRotator, o options) *openAIProvider {
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
	return &openAIProvider{client: openai.NewClient(opts...), keys: keys, cfg: cfg}
}

func (p *openAIProvider) Provider() string { return config.ProviderOpenAI }

func (p *openAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	if err := validatePrompts(system, user); err != nil {
		return "", err
	}
	return p.complete(ctx, "complete", system, user, p.cfg.MaxTokens)
}

func (p *openAIProvider) HealthCheck(ctx context.Context) error {
	_, err := p.complete(ctx, "health", "You are a health check.", healthPrompt, 8)
	return err
}

func (p *openAIProvider) complete(ctx context.Context, op, system, user string, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(p.cfg.Temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}
	resp, err := p.client.Chat.Completions.New(ctx, params, option.WithAPIKey(p.keys.Next()))
	if err != nil {
		return "", classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", emptyContent(op, config.ProviderOpenAI, "no_choices")
	}
	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", emptyContent(op, config.ProviderOpenAI, string(choice.FinishReason))
	}
	return content, nil
}

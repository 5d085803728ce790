// Package llm wraps the chat completion providers used to write READMEs.
//
// Two providers are supported:
//   - openai: any OpenAI-compatible endpoint (OpenAI, OpenRouter, Gemini's
//     compatibility layer) through github.com/openai/openai-go
//   - anthropic: the Messages API through github.com/anthropics/anthropic-sdk-go
//
// # Entry Points
//
// New: select a provider from config.LLM. It returns nil when the provider
// is "template" or no API keys are configured; callers fall back to a
// deterministic renderer.
// Completer.Complete: send a system and user prompt, receive text.
// Completer.HealthCheck: issue a tiny completion to verify credentials.
//
// # Key Rotation
//
// Every request takes the next key from a KeyRotator, spreading load across
// all configured keys. SDK retries are bounded by llm.max_retries.
package llm

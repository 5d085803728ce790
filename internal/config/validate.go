package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateGitHub(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout < 0 {
		return errors.New("notifications.request_timeout must be non-negative")
	}
	if c.Archive.RetentionDays < 0 {
		return errors.New("archive.retention_days must be non-negative")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.BaseDeadlineSeconds <= 0 {
		return errors.New("session.base_deadline_seconds must be positive")
	}
	if c.Session.ExtendedDeadlineSeconds <= 0 {
		return errors.New("session.extended_deadline_seconds must be positive")
	}
	if c.Session.IdleTimeoutSeconds <= 0 {
		return errors.New("session.idle_timeout_seconds must be positive")
	}
	if c.Session.RetentionSeconds < 0 {
		return errors.New("session.retention_seconds must be non-negative")
	}
	if c.Session.TimeoutReplaySeconds < 0 {
		return errors.New("session.timeout_replay_seconds must be non-negative")
	}
	if c.Session.MaxSessions <= 0 {
		return errors.New("session.max_sessions must be positive")
	}
	if c.Session.SupervisorIntervalMillis <= 0 {
		return errors.New("session.supervisor_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateGitHub() error {
	if c.GitHub.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("github.token is required. Set GITHUB_TOKEN env var or edit %s (create with 'quill config init')", defaultPath)
	}
	if c.GitHub.MaxRepos <= 0 || c.GitHub.MaxRepos > 100 {
		return errors.New("github.max_repos must be between 1 and 100")
	}
	if c.GitHub.RequestsPerSecond <= 0 {
		return errors.New("github.requests_per_second must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderTemplate:
	default:
		return fmt.Errorf("llm.provider: unsupported value %q (want openai, anthropic, or template)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm.max_retries must be non-negative")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.RedisDB < 0 {
		return errors.New("cache.redis_db must be non-negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// GenerationEnabled reports whether an LLM provider is configured with keys.
// When false the ghostwriter renders from its built-in template.
func (c *Config) GenerationEnabled() bool {
	return c.LLM.Provider != ProviderTemplate && len(c.LLM.APIKeys) > 0
}

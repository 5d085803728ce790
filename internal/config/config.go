package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// API contains the HTTP listener settings.
type API struct {
	Bind           string   `toml:"bind"`
	Token          string   `toml:"token"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Session contains the orchestrator deadlines and limits.
type Session struct {
	BaseDeadlineSeconds      int `toml:"base_deadline_seconds"`
	ExtendedDeadlineSeconds  int `toml:"extended_deadline_seconds"`
	IdleTimeoutSeconds       int `toml:"idle_timeout_seconds"`
	RetentionSeconds         int `toml:"retention_seconds"`
	TimeoutReplaySeconds     int `toml:"timeout_replay_seconds"`
	MaxSessions              int `toml:"max_sessions"`
	SupervisorIntervalMillis int `toml:"supervisor_interval_ms"`
}

// GitHub contains configuration for the GitHub GraphQL API.
type GitHub struct {
	Token             string  `toml:"token"`
	GraphQLURL        string  `toml:"graphql_url"`
	MaxRepos          int     `toml:"max_repos"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// LLM contains the README generation model settings.
type LLM struct {
	Provider       string   `toml:"provider"`
	APIKeys        []string `toml:"api_keys"`
	BaseURL        string   `toml:"base_url"`
	Model          string   `toml:"model"`
	Temperature    float64  `toml:"temperature"`
	MaxTokens      int      `toml:"max_tokens"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	MaxRetries     int      `toml:"max_retries"`
}

// Cache contains the Redis profile cache settings. An empty address disables
// caching.
type Cache struct {
	RedisAddr         string `toml:"redis_addr"`
	RedisPassword     string `toml:"redis_password"`
	RedisDB           int    `toml:"redis_db"`
	ProfileTTLSeconds int    `toml:"profile_ttl_seconds"`
}

// Archive contains the outcome history settings.
type Archive struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic        string `toml:"ntfy_topic"`
	RequestTimeout   int    `toml:"request_timeout"`
	SessionCompleted bool   `toml:"session_completed"`
	SessionFailed    bool   `toml:"session_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Quill.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - API: daemon listener, bearer token, websocket origins
//   - Session: deadlines, idle and retention windows, capacity
//   - GitHub: GraphQL endpoint, token, rate limits
//   - LLM: provider, rotated API keys, model parameters
//   - Cache: Redis profile cache
//   - Archive: SQLite outcome history
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Session       Session       `toml:"session"`
	GitHub        GitHub        `toml:"github"`
	LLM           LLM           `toml:"llm"`
	Cache         Cache         `toml:"cache"`
	Archive       Archive       `toml:"archive"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quill.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath is the daemon's single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "quilld.lock")
}

// ArchivePath is the SQLite history database.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.Paths.DataDir, "archive.db")
}

// BaseDeadline is how long a session may take to reach the style pause.
func (c *Config) BaseDeadline() time.Duration {
	return time.Duration(c.Session.BaseDeadlineSeconds) * time.Second
}

// ExtendedDeadline replaces the base deadline once a style is selected.
func (c *Config) ExtendedDeadline() time.Duration {
	return time.Duration(c.Session.ExtendedDeadlineSeconds) * time.Second
}

// IdleTimeout bounds how long a session may live without a subscriber.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Session.IdleTimeoutSeconds) * time.Second
}

// Retention is how long finished sessions stay fetchable.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Session.RetentionSeconds) * time.Second
}

// ReplayWindow is how long timed out or cancelled sessions stay fetchable so
// a late subscriber can still replay the terminal event.
func (c *Config) ReplayWindow() time.Duration {
	return time.Duration(c.Session.TimeoutReplaySeconds) * time.Second
}

// SupervisorInterval is the tick period of the session supervisor.
func (c *Config) SupervisorInterval() time.Duration {
	return time.Duration(c.Session.SupervisorIntervalMillis) * time.Millisecond
}

// ProfileTTL is the Redis expiry for cached GitHub profiles.
func (c *Config) ProfileTTL() time.Duration {
	return time.Duration(c.Cache.ProfileTTLSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

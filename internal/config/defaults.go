package config

const (
	defaultConfigPath               = "~/.config/quill/config.toml"
	defaultDataDir                  = "~/.local/share/quill"
	defaultLogDir                   = "~/.local/share/quill/logs"
	defaultLogRetentionDays         = 30
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultAPIBind                  = "127.0.0.1:7488"
	defaultBaseDeadlineSeconds      = 60
	defaultExtendedDeadlineSeconds  = 300
	defaultIdleTimeoutSeconds       = 120
	defaultRetentionSeconds         = 300
	defaultTimeoutReplaySeconds     = 30
	defaultMaxSessions              = 64
	defaultSupervisorIntervalMillis = 500
	defaultGitHubGraphQLURL         = "https://api.github.com/graphql"
	defaultGitHubMaxRepos           = 15
	defaultGitHubRequestsPerSecond  = 5.0
	defaultGitHubBurst              = 5
	defaultGitHubTimeoutSeconds     = 30
	defaultLLMProvider              = ProviderOpenAI
	defaultLLMModel                 = "gpt-4o-mini"
	defaultAnthropicModel           = "claude-3-5-haiku-latest"
	defaultLLMTemperature           = 0.7
	defaultLLMMaxTokens             = 2048
	defaultLLMTimeoutSeconds        = 60
	defaultLLMMaxRetries            = 2
	defaultProfileTTLSeconds        = 3600
	defaultArchiveRetentionDays     = 30
	defaultNotifyRequestTimeout     = 10
)

// Supported [llm] providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderTemplate  = "template"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Session: Session{
			BaseDeadlineSeconds:      defaultBaseDeadlineSeconds,
			ExtendedDeadlineSeconds:  defaultExtendedDeadlineSeconds,
			IdleTimeoutSeconds:       defaultIdleTimeoutSeconds,
			RetentionSeconds:         defaultRetentionSeconds,
			TimeoutReplaySeconds:     defaultTimeoutReplaySeconds,
			MaxSessions:              defaultMaxSessions,
			SupervisorIntervalMillis: defaultSupervisorIntervalMillis,
		},
		GitHub: GitHub{
			GraphQLURL:        defaultGitHubGraphQLURL,
			MaxRepos:          defaultGitHubMaxRepos,
			RequestsPerSecond: defaultGitHubRequestsPerSecond,
			Burst:             defaultGitHubBurst,
			TimeoutSeconds:    defaultGitHubTimeoutSeconds,
		},
		LLM: LLM{
			Provider:       defaultLLMProvider,
			Temperature:    defaultLLMTemperature,
			MaxTokens:      defaultLLMMaxTokens,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			MaxRetries:     defaultLLMMaxRetries,
		},
		Cache: Cache{
			ProfileTTLSeconds: defaultProfileTTLSeconds,
		},
		Archive: Archive{
			Enabled:       true,
			RetentionDays: defaultArchiveRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout:   defaultNotifyRequestTimeout,
			SessionCompleted: true,
			SessionFailed:    true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}

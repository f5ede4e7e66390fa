package config

const (
	defaultProvider       = "openai"
	defaultModel          = "gpt-4o-mini"
	defaultLLMTimeout     = 60
	defaultMaxSources     = 3
	defaultCountry        = "US"
	defaultLanguage       = "en"
	defaultMaxConcurrency = 4
	defaultMaxChars       = 8000
	defaultExtractTimeout = 15
	defaultUserAgent      = "Mozilla/5.0 (compatible; scriptflow/1.0)"
	defaultMaxDirectives  = 10
	defaultStoreBackend   = "memory"
	defaultStorePath      = "scripts.db"
	defaultRedisAddr      = "localhost:6379"
	defaultStorePrefix    = "scriptflow:"
	defaultServerBind     = "127.0.0.1:8080"
	defaultLogLevel       = "info"
	defaultLogPrefix      = "scriptflow"
)

// Default returns a Config populated with defaults.
func Default() Config {
	return Config{
		LLM: LLM{
			Provider:       defaultProvider,
			Model:          defaultModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Research: Research{
			MaxSources: defaultMaxSources,
			Country:    defaultCountry,
			Language:   defaultLanguage,
		},
		Extract: Extract{
			MaxConcurrency: defaultMaxConcurrency,
			MaxChars:       defaultMaxChars,
			TimeoutSeconds: defaultExtractTimeout,
			UserAgent:      defaultUserAgent,
		},
		Pipeline: Pipeline{
			MaxDirectives: defaultMaxDirectives,
		},
		Store: Store{
			Backend:   defaultStoreBackend,
			Path:      defaultStorePath,
			RedisAddr: defaultRedisAddr,
			Prefix:    defaultStorePrefix,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Prefix: defaultLogPrefix,
		},
	}
}

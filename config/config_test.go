package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/scriptflow/config"
)

// chdir moves into an empty directory so no stray scriptflow.toml or .env is read.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// clearEnv unsets every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "BRAVE_API_KEY", "SCRIPTFLOW_LLM_PROVIDER", "SCRIPTFLOW_LLM_MODEL",
		"SCRIPTFLOW_LLM_BASE_URL", "SCRIPTFLOW_LLM_API_KEY", "SCRIPTFLOW_VOICE_PROFILE",
		"SCRIPTFLOW_STORE_BACKEND", "SCRIPTFLOW_STORE_PATH", "SCRIPTFLOW_STORE_DSN",
		"SCRIPTFLOW_REDIS_ADDR", "SCRIPTFLOW_SERVER_BIND", "SCRIPTFLOW_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
	assert.Equal(t, 3, cfg.Research.MaxSources)
	assert.Equal(t, 10, cfg.Pipeline.MaxDirectives)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Error(t, cfg.RequireLLM())
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	dir := chdir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "scriptflow.toml"), []byte(`
[llm]
provider = "LangChain"
model = "gpt-4o"

[research]
max_sources = 5
web_search = true

[store]
backend = "sqlite"
path = "data/scripts.db"

[log]
level = "debug"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=from-dotenv\n"), 0o644))
	t.Setenv("SCRIPTFLOW_LLM_MODEL", "gpt-4.1")
	t.Setenv("BRAVE_API_KEY", "brave-key")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "langchain", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Research.MaxSources)
	assert.True(t, cfg.Research.WebSearch)
	assert.Equal(t, "brave-key", cfg.Research.BraveAPIKey)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, filepath.Clean("data/scripts.db"), cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Extract.MaxConcurrency, "unset keys keep defaults")
	assert.NoError(t, cfg.RequireLLM())
}

func TestLoadExplicitMissingPath(t *testing.T) {
	clearEnv(t)
	chdir(t)
	_, err := config.Load("does-not-exist.toml")
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bad toml":          "[llm\nprovider=",
		"unknown backend":   "[store]\nbackend = \"mongo\"",
		"postgres no dsn":   "[store]\nbackend = \"postgres\"",
		"zero sources":      "[research]\nmax_sources = 0",
		"bad log level":     "[log]\nlevel = \"loud\"",
		"zero directives":   "[pipeline]\nmax_directives = 0",
		"zero concurrency":  "[extract]\nmax_concurrency = 0",
		"empty server bind": "[server]\nbind = \"\"",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestParseRedis(t *testing.T) {
	cfg, err := config.Parse([]byte("[store]\nbackend = \"redis\"\nredis_addr = \"cache:6379\"\nttl_hours = 24"))
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 24, cfg.Store.TTLHours)
}

func TestSampleConfigIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scriptflow.toml")
	require.NoError(t, config.CreateSample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Store, cfg.Store)
}

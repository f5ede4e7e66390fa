package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// LLM selects the text-generation provider.
type LLM struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Research configures source gathering.
type Research struct {
	MaxSources  int    `toml:"max_sources"`
	WebSearch   bool   `toml:"web_search"`
	BraveAPIKey string `toml:"brave_api_key"`
	Country     string `toml:"country"`
	Language    string `toml:"language"`
}

// Extract configures content extraction.
type Extract struct {
	MaxConcurrency int    `toml:"max_concurrency"`
	MaxChars       int    `toml:"max_chars"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Pipeline configures script assembly.
type Pipeline struct {
	MaxDirectives int    `toml:"max_directives"`
	VoiceProfile  string `toml:"voice_profile"`
}

// Store selects where finished scripts are archived.
type Store struct {
	Backend       string `toml:"backend"` // memory, file, sqlite, redis or postgres
	Path          string `toml:"path"`    // file directory or sqlite database
	DSN           string `toml:"dsn"`     // postgres connection string
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
	TTLHours      int    `toml:"ttl_hours"`
}

// Server configures the HTTP API.
type Server struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
	Debug          bool     `toml:"debug"`
}

// Logging configures log output.
type Logging struct {
	Level  string `toml:"level"`
	Prefix string `toml:"prefix"`
}

// Config encapsulates all configuration values for scriptflow.
type Config struct {
	LLM      LLM      `toml:"llm"`
	Research Research `toml:"research"`
	Extract  Extract  `toml:"extract"`
	Pipeline Pipeline `toml:"pipeline"`
	Store    Store    `toml:"store"`
	Server   Server   `toml:"server"`
	Logging  Logging  `toml:"log"`
}

// DefaultConfigPath is looked up when Load is given no path.
const DefaultConfigPath = "scriptflow.toml"

// Load reads .env, then the TOML file at path, then environment overrides,
// and validates the result. An empty path uses DefaultConfigPath when it
// exists and defaults otherwise; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		if err := cfg.decodeFile(resolved); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes TOML on top of the defaults without reading the environment.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) decodeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("stat config: %w", err)
		}
		return path, nil
	}
	info, err := os.Stat(DefaultConfigPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", nil
	}
	return DefaultConfigPath, nil
}

func (c *Config) applyEnv() {
	setString(&c.LLM.Provider, "SCRIPTFLOW_LLM_PROVIDER")
	setString(&c.LLM.Model, "SCRIPTFLOW_LLM_MODEL")
	setString(&c.LLM.BaseURL, "SCRIPTFLOW_LLM_BASE_URL")
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.APIKey, "SCRIPTFLOW_LLM_API_KEY")
	setString(&c.Research.BraveAPIKey, "BRAVE_API_KEY")
	setString(&c.Pipeline.VoiceProfile, "SCRIPTFLOW_VOICE_PROFILE")
	setString(&c.Store.Backend, "SCRIPTFLOW_STORE_BACKEND")
	setString(&c.Store.Path, "SCRIPTFLOW_STORE_PATH")
	setString(&c.Store.DSN, "SCRIPTFLOW_STORE_DSN")
	setString(&c.Store.RedisAddr, "SCRIPTFLOW_REDIS_ADDR")
	setString(&c.Server.Bind, "SCRIPTFLOW_SERVER_BIND")
	setString(&c.Logging.Level, "SCRIPTFLOW_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func (c *Config) normalize() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Store.Path != "" {
		c.Store.Path = filepath.Clean(c.Store.Path)
	}
}

// CreateSample writes a sample configuration file to path.
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

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smallnest/scriptflow/log"
)

// StoreBackends lists the accepted store.backend values.
var StoreBackends = []string{"memory", "file", "sqlite", "redis", "postgres"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateResearch(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if c.Pipeline.MaxDirectives <= 0 {
		return errors.New("pipeline.max_directives must be positive")
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind must be set")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.Provider == "" {
		return errors.New("llm.provider must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateResearch() error {
	if c.Research.MaxSources <= 0 {
		return errors.New("research.max_sources must be positive")
	}
	return nil
}

func (c *Config) validateExtract() error {
	if c.Extract.MaxConcurrency <= 0 {
		return errors.New("extract.max_concurrency must be positive")
	}
	if c.Extract.MaxChars <= 0 {
		return errors.New("extract.max_chars must be positive")
	}
	if c.Extract.TimeoutSeconds <= 0 {
		return errors.New("extract.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "memory":
	case "file", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must be set for the %s backend", c.Store.Backend)
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr must be set for the redis backend")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return errors.New("store.dsn must be set for the postgres backend (or SCRIPTFLOW_STORE_DSN)")
		}
	default:
		return fmt.Errorf("store.backend %q is not one of %s", c.Store.Backend, strings.Join(StoreBackends, ", "))
	}
	if c.Store.TTLHours < 0 {
		return errors.New("store.ttl_hours must not be negative")
	}
	return nil
}

// RequireLLM reports whether text generation can be configured.
func (c *Config) RequireLLM() error {
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required; set OPENAI_API_KEY or edit scriptflow.toml")
	}
	return nil
}

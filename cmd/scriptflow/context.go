package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/scriptflow/config"
	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/pipeline"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/store"
	"github.com/smallnest/scriptflow/store/file"
	"github.com/smallnest/scriptflow/store/memory"
	"github.com/smallnest/scriptflow/store/postgres"
	"github.com/smallnest/scriptflow/store/redis"
	"github.com/smallnest/scriptflow/store/sqlite"
	"github.com/smallnest/scriptflow/textgen"
	"github.com/smallnest/scriptflow/tool"
)

type commandContext struct {
	configFlag   string
	logLevelFlag string

	// Overridable service constructors.
	newGenerator func(*config.Config) (textgen.Generator, error)
	newExtractor func(*config.Config) tool.Extractor
	newStore     func(context.Context, *config.Config) (store.ScriptStore, error)

	// logOutput receives log lines; stderr when nil.
	logOutput io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{
		newGenerator: defaultGenerator,
		newExtractor: defaultExtractor,
		newStore:     openStore,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if lvl := strings.TrimSpace(c.logLevelFlag); lvl != "" {
			if _, err := log.ParseLevel(lvl); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
			cfg.Logging.Level = lvl
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) *log.GologLogger {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.LogLevelInfo
	}
	out := c.logOutput
	if out == nil {
		out = os.Stderr
	}
	l := log.New(out, level, cfg.Logging.Prefix)
	log.SetDefaultLogger(l)
	return l
}

// controllerOptions maps configuration onto pipeline options. archive may be nil.
func (c *commandContext) controllerOptions(cfg *config.Config, logger log.Logger, archive store.ScriptStore) ([]pipeline.Option, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithSourceLimit(cfg.Research.MaxSources),
		pipeline.WithConcurrency(cfg.Extract.MaxConcurrency),
		pipeline.WithDirectiveLimit(cfg.Pipeline.MaxDirectives),
	}
	if cfg.Research.WebSearch {
		searcher, err := tool.NewBraveSearch(cfg.Research.BraveAPIKey,
			tool.WithBraveCountry(cfg.Research.Country),
			tool.WithBraveLang(cfg.Research.Language),
			tool.WithBraveCount(cfg.Research.MaxSources),
		)
		if err != nil {
			return nil, fmt.Errorf("web search: %w", err)
		}
		opts = append(opts, pipeline.WithSearch(searcher))
	}
	if archive != nil {
		opts = append(opts, pipeline.WithStore(archive))
	}
	if path := strings.TrimSpace(cfg.Pipeline.VoiceProfile); path != "" {
		voice, err := script.LoadVoiceProfile(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithVoice(voice))
	}
	return opts, nil
}

func defaultGenerator(cfg *config.Config) (textgen.Generator, error) {
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	return textgen.New(textgen.Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second},
	})
}

func defaultExtractor(cfg *config.Config) tool.Extractor {
	opts := []tool.WebOption{
		tool.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Extract.TimeoutSeconds) * time.Second}),
		tool.WithMaxChars(cfg.Extract.MaxChars),
	}
	if cfg.Extract.UserAgent != "" {
		opts = append(opts, tool.WithUserAgent(cfg.Extract.UserAgent))
	}
	return tool.NewWebExtractor(opts...)
}

// openStore opens the archive backend named by store.backend.
func openStore(ctx context.Context, cfg *config.Config) (store.ScriptStore, error) {
	sc := cfg.Store
	switch sc.Backend {
	case "memory":
		return memory.NewMemoryScriptStore(), nil
	case "file":
		s, err := file.NewFileScriptStore(sc.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.NewSqliteScriptStore(sqlite.SqliteOptions{Path: sc.Path})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		return redis.NewRedisScriptStore(redis.RedisOptions{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
			Prefix:   sc.Prefix,
			TTL:      time.Duration(sc.TTLHours) * time.Hour,
		}), nil
	case "postgres":
		s, err := postgres.NewPostgresScriptStore(ctx, postgres.PostgresOptions{ConnString: sc.DSN})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
	}
}

// withStore opens the configured archive, runs fn and closes the archive.
func (c *commandContext) withStore(ctx context.Context, fn func(store.ScriptStore) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	s, err := c.newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()
	return fn(s)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

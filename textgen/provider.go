package textgen

import (
	"fmt"
	"net/http"
	"sort"
)

// Config selects and configures a provider.
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// ProviderFactory builds a Generator from configuration.
type ProviderFactory func(cfg Config) (Generator, error)

var providers = map[string]ProviderFactory{
	"langchain": newLangchainOpenAI,
	"openai": func(cfg Config) (Generator, error) {
		return NewOpenAIGenerator(cfg)
	},
	"qianfan": func(cfg Config) (Generator, error) {
		return NewQianfanGenerator(cfg)
	},
}

// Register adds or replaces a provider factory.
func Register(name string, factory ProviderFactory) {
	providers[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the Generator named by cfg.Provider.
func New(cfg Config) (Generator, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	return factory(cfg)
}

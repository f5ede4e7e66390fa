package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangchainGenerator adapts any langchaingo llms.Model to Generator.
type LangchainGenerator struct {
	model llms.Model
}

var _ Generator = (*LangchainGenerator)(nil)

// NewLangchainGenerator wraps model.
func NewLangchainGenerator(model llms.Model) *LangchainGenerator {
	return &LangchainGenerator{model: model}
}

// Generate sends prompt as a single human message.
func (g *LangchainGenerator) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := Apply(opts...)

	var callOpts []llms.CallOption
	if o.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(o.Temperature))
	}
	if o.MaxOutputTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.MaxOutputTokens))
	}
	if o.ResponseFormat == FormatJSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, callOpts...)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func newLangchainOpenAI(cfg Config) (Generator, error) {
	var opts []openai.Option
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("init langchain openai model: %w", err)
	}
	return NewLangchainGenerator(model), nil
}

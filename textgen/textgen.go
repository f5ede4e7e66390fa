package textgen

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the service answers with no text.
	ErrEmptyResponse = errors.New("no response")

	// ErrUnknownProvider is returned by New for an unregistered provider name.
	ErrUnknownProvider = errors.New("unknown text generation provider")
)

// ResponseFormat selects between free text and structured JSON output.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Options tune a single generation request. Zero values leave the provider default.
type Options struct {
	Temperature     float64
	MaxOutputTokens int
	ResponseFormat  ResponseFormat
}

// Option customizes a generation request.
type Option func(*Options)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = t
	}
}

// WithMaxOutputTokens caps the response length.
func WithMaxOutputTokens(n int) Option {
	return func(o *Options) {
		o.MaxOutputTokens = n
	}
}

// WithJSON asks the provider for a single JSON object.
func WithJSON() Option {
	return func(o *Options) {
		o.ResponseFormat = FormatJSON
	}
}

// Apply folds opts into an Options value.
func Apply(opts ...Option) Options {
	o := Options{ResponseFormat: FormatText}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Generator is the text-generation service: prompt in, text out.
// Failures, including non-success HTTP statuses, are returned as errors.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, opts ...Option) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return f(ctx, prompt, opts...)
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")

// StripCodeFence removes a Markdown code fence wrapping the whole response,
// e.g. "```json\n[...]\n```".
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

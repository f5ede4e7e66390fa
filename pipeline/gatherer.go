package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/textgen"
	"github.com/smallnest/scriptflow/tool"
)

// DefaultMaxSources caps the number of research sources kept per topic.
const DefaultMaxSources = 3

const researchPrompt = `You are a research assistant for a short-form video creator.
Find exactly 3 useful sources about the topic below. Prefer articles with concrete facts, data or practical advice.

Topic: %s

Respond with only a JSON array of exactly 3 objects with the keys "title", "link" and "snippet".
"snippet" is a one or two sentence summary of what the source says. Do not add any other text.`

// Gatherer finds research sources for a topic. It never fails: when neither
// search nor generation yields anything it returns a single fallback source.
type Gatherer struct {
	gen        textgen.Generator
	searcher   tool.Searcher
	maxSources int
	logger     log.Logger
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

// WithSearcher makes the gatherer try web search before asking the model.
func WithSearcher(s tool.Searcher) GathererOption {
	return func(g *Gatherer) {
		g.searcher = s
	}
}

// WithMaxSources caps the number of sources returned.
func WithMaxSources(n int) GathererOption {
	return func(g *Gatherer) {
		if n > 0 {
			g.maxSources = n
		}
	}
}

// WithGathererLogger sets the logger.
func WithGathererLogger(l log.Logger) GathererOption {
	return func(g *Gatherer) {
		g.logger = l
	}
}

// NewGatherer creates a gatherer backed by gen.
func NewGatherer(gen textgen.Generator, opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		gen:        gen,
		maxSources: DefaultMaxSources,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = log.OrDefault(g.logger)
	return g
}

type rawSource struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Gather returns sources for topic, numbered source-0, source-1, ...
func (g *Gatherer) Gather(ctx context.Context, topic string) []script.Source {
	if g.searcher != nil {
		results, err := g.searcher.Search(ctx, topic)
		if err != nil {
			g.logger.Warn("web search failed for %q: %v", topic, err)
		}
		if len(results) > 0 {
			sources := make([]script.Source, 0, len(results))
			for _, r := range results {
				sources = append(sources, script.Source{Title: r.Title, Link: r.URL, Snippet: r.Snippet})
			}
			return g.number(sources)
		}
	}

	sources, err := g.research(ctx, topic)
	if err != nil {
		g.logger.Warn("research failed for %q, using fallback source: %v", topic, err)
		return []script.Source{FallbackSource(topic)}
	}
	return g.number(sources)
}

func (g *Gatherer) research(ctx context.Context, topic string) ([]script.Source, error) {
	if g.gen == nil {
		return nil, fmt.Errorf("no text generator configured")
	}
	resp, err := g.gen.Generate(ctx, fmt.Sprintf(researchPrompt, topic), textgen.WithTemperature(0.7))
	if err != nil {
		return nil, err
	}

	var raw []rawSource
	if err := json.Unmarshal([]byte(textgen.StripCodeFence(resp)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse sources: %w", err)
	}

	var sources []script.Source
	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		snippet := strings.TrimSpace(r.Snippet)
		if title == "" && snippet == "" {
			continue
		}
		sources = append(sources, script.Source{
			Title:   title,
			Link:    strings.TrimSpace(r.Link),
			Snippet: snippet,
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources in response")
	}
	return sources, nil
}

func (g *Gatherer) number(sources []script.Source) []script.Source {
	if len(sources) > g.maxSources {
		sources = sources[:g.maxSources]
	}
	for i := range sources {
		sources[i].ID = fmt.Sprintf("source-%d", i)
	}
	return sources
}

// FallbackSource is the synthetic source used when research yields nothing.
// Its text is already filled in, so extraction skips it.
func FallbackSource(topic string) script.Source {
	text := fmt.Sprintf("%s is a subject many viewers want to understand better. "+
		"A strong short video on %s answers the most common questions people have, "+
		"points out the mistakes beginners make, and ends with simple, practical steps "+
		"anyone can try today.", topic, topic)
	return script.Source{
		ID:            "source-0",
		Title:         "General overview: " + topic,
		Snippet:       text,
		ExtractedText: text,
	}
}

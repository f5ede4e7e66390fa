package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/scriptflow/tool"
)

type fakeSearcher struct {
	results []tool.SearchResult
	err     error
}

func (f fakeSearcher) Search(ctx context.Context, query string) ([]tool.SearchResult, error) {
	return f.results, f.err
}

func TestGatherer_ParsesFencedJSON(t *testing.T) {
	g := NewGatherer(newScriptedGenerator(), WithGathererLogger(quiet))

	sources := g.Gather(context.Background(), "5 morning habits")
	require.Len(t, sources, 3)
	assert.Equal(t, "source-0", sources[0].ID)
	assert.Equal(t, "source-2", sources[2].ID)
	assert.Equal(t, "Morning routines that stick", sources[0].Title)
	assert.Equal(t, "https://example.com/routines", sources[0].Link)
	assert.Equal(t, "Small routines beat big plans.", sources[0].Snippet)
	assert.Empty(t, sources[0].ExtractedText)
}

func TestGatherer_CapsSources(t *testing.T) {
	g := NewGatherer(newScriptedGenerator(), WithMaxSources(2), WithGathererLogger(quiet))
	sources := g.Gather(context.Background(), "habits")
	assert.Len(t, sources, 2)
}

func TestGatherer_FallbackOnFailure(t *testing.T) {
	cases := map[string]func(*scriptedGenerator){
		"service error": func(g *scriptedGenerator) { g.researchErr = errors.New("status code 500") },
		"invalid json":  func(g *scriptedGenerator) { g.research = "Here are some ideas: sleep more." },
		"empty array":   func(g *scriptedGenerator) { g.research = "[]" },
		"blank items":   func(g *scriptedGenerator) { g.research = `[{"title": "", "snippet": ""}]` },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			gen := newScriptedGenerator()
			mutate(gen)
			sources := NewGatherer(gen, WithGathererLogger(quiet)).Gather(context.Background(), "cold showers")

			require.Len(t, sources, 1)
			assert.Equal(t, "source-0", sources[0].ID)
			assert.Contains(t, sources[0].ExtractedText, "cold showers")
			assert.Equal(t, sources[0].Snippet, sources[0].ExtractedText)
		})
	}
}

func TestGatherer_PrefersSearch(t *testing.T) {
	gen := newScriptedGenerator()
	search := fakeSearcher{results: []tool.SearchResult{
		{Title: "A", URL: "https://a.example", Snippet: "a"},
		{Title: "B", URL: "https://b.example", Snippet: "b"},
		{Title: "C", URL: "https://c.example", Snippet: "c"},
		{Title: "D", URL: "https://d.example", Snippet: "d"},
	}}
	g := NewGatherer(gen, WithSearcher(search), WithGathererLogger(quiet))

	sources := g.Gather(context.Background(), "habits")
	require.Len(t, sources, DefaultMaxSources)
	assert.Equal(t, "https://a.example", sources[0].Link)
	assert.Equal(t, "source-2", sources[2].ID)
	assert.Empty(t, gen.prompts, "model should not be asked when search succeeds")
}

func TestGatherer_SearchFailureFallsBackToModel(t *testing.T) {
	g := NewGatherer(newScriptedGenerator(),
		WithSearcher(fakeSearcher{err: errors.New("rate limited")}),
		WithGathererLogger(quiet))

	sources := g.Gather(context.Background(), "habits")
	require.Len(t, sources, 3)
	assert.Equal(t, "Morning routines that stick", sources[0].Title)
}

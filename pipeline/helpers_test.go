package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/textgen"
	"github.com/smallnest/scriptflow/tool"
)

const researchJSON = "```json\n" + `[
	{"title": "Morning routines that stick", "link": "https://example.com/routines", "snippet": "Small routines beat big plans."},
	{"title": "Sunlight and sleep", "link": "https://example.com/sunlight", "snippet": "Light resets your clock."},
	{"title": "Hydration myths", "link": "https://example.com/water", "snippet": "Water first thing helps focus."}
]` + "\n```"

const componentsJSON = `{
	"hooks": [
		{"title": "Question", "content": "Why do you wake up tired every single day?"},
		"Stop hitting snooze.",
		{"title": "Secret", "content": "The secret to mornings is the night before."},
		{"title": "Stat", "content": "Most people skip the one habit that matters."}
	],
	"bridges": ["Here's what works.", "Let me show you.", "It starts tonight.", "Science agrees."],
	"golden_nuggets": [
		{"title": "5 morning habits", "bullet_points": ["Drink water", "Get sunlight", "Move for 10 minutes"]}
	],
	"wtas": [
		"Comment your favorite habit below",
		"Follow for more routines",
		"Share this with a friend",
		"Try one tomorrow"
	]
}`

const finalScript = "Why do you wake up tired every single day? Here's what works. Drink water, get sunlight and move for 10 minutes. Try one tomorrow."

// scriptedGenerator answers each pipeline request with a canned response.
type scriptedGenerator struct {
	research      string
	researchErr   error
	components    string
	componentsErr error
	script        string
	scriptErr     error

	// block, when set, holds the components request until it is closed.
	block chan struct{}

	mu      sync.Mutex
	prompts []string
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		research:   researchJSON,
		components: componentsJSON,
		script:     finalScript,
	}
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, opts ...textgen.Option) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	switch {
	case strings.Contains(prompt, "research assistant"):
		return g.research, g.researchErr
	case textgen.Apply(opts...).ResponseFormat == textgen.FormatJSON:
		if g.block != nil {
			<-g.block
		}
		return g.components, g.componentsErr
	default:
		return g.script, g.scriptErr
	}
}

func (g *scriptedGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// fakeExtractor serves page text by URL; unknown URLs fail.
type fakeExtractor struct {
	pages map[string]string
	calls atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) tool.Extraction {
	f.calls.Add(1)
	if text, ok := f.pages[url]; ok {
		return tool.Extraction{Text: text}
	}
	return tool.Extraction{Error: "request failed with status code 404"}
}

func newFakeExtractor() *fakeExtractor {
	return &fakeExtractor{pages: map[string]string{
		"https://example.com/routines": "A routine you repeat daily is easier than one you plan weekly.",
		"https://example.com/sunlight": "Morning light exposure shifts your circadian rhythm earlier.",
	}}
}

var quiet log.Logger = &log.NoOpLogger{}

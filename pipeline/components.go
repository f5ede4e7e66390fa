package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/textgen"
)

const (
	// VariantsPerPart is the number of hooks, bridges and calls to action requested.
	VariantsPerPart = 4

	minBulletPoints = 3
	maxBulletPoints = 5
)

const componentsPrompt = `You are an expert short-form video scriptwriter.

Video idea: %s

Research:
%s
Using the research where it helps, write script components for this video.
Respond with a single JSON object with exactly these keys:
- "hooks": an array of 4 attention-grabbing opening lines, each an object with "title" and "content"
- "bridges": an array of 4 transitions from the hook to the main content, each an object with "title" and "content"
- "golden_nuggets": an array of core value blocks, each an object with "title" and "bullet_points" (3 to 5 short strings)
- "wtas": an array of 4 calls to action, each an object with "title" and "content"

Keep every item punchy and conversational. Return only the JSON object.`

// ComponentGenerator produces the variants the user chooses from.
type ComponentGenerator struct {
	gen    textgen.Generator
	logger log.Logger
}

// NewComponentGenerator creates a generator stage backed by gen.
func NewComponentGenerator(gen textgen.Generator, logger log.Logger) *ComponentGenerator {
	return &ComponentGenerator{gen: gen, logger: log.OrDefault(logger)}
}

// Generate asks for components in one JSON request. A missing or empty
// category is an error; nothing is defaulted.
func (g *ComponentGenerator) Generate(ctx context.Context, topic string, sources []script.Source) (*script.Components, error) {
	if g.gen == nil {
		return nil, fmt.Errorf("no text generator configured")
	}
	prompt := fmt.Sprintf(componentsPrompt, topic, researchBlocks(sources))
	resp, err := g.gen.Generate(ctx, prompt, textgen.WithJSON(), textgen.WithTemperature(0.9))
	if err != nil {
		return nil, err
	}
	return g.parse(resp)
}

// researchBlocks lists every source with extracted text as a title/text block.
func researchBlocks(sources []script.Source) string {
	var b strings.Builder
	for _, s := range sources {
		if strings.TrimSpace(s.ExtractedText) == "" {
			continue
		}
		fmt.Fprintf(&b, "Title: %s\n%s\n\n", s.Title, s.ExtractedText)
	}
	if b.Len() == 0 {
		return "(no research available)\n"
	}
	return b.String()
}

// rawPart accepts either a bare string or an object with title and content.
type rawPart struct {
	Title   string
	Content string
}

func (p *rawPart) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Content)
	}
	var obj struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Title = obj.Title
	p.Content = obj.Content
	if p.Content == "" {
		p.Content = obj.Text
	}
	return nil
}

type rawNugget struct {
	Title        string   `json:"title"`
	BulletPoints []string `json:"bullet_points"`
}

type rawComponents struct {
	Hooks         []rawPart   `json:"hooks"`
	Bridges       []rawPart   `json:"bridges"`
	GoldenNuggets []rawNugget `json:"golden_nuggets"`
	WTAs          []rawPart   `json:"wtas"`
}

func (g *ComponentGenerator) parse(resp string) (*script.Components, error) {
	var raw rawComponents
	if err := json.Unmarshal([]byte(textgen.StripCodeFence(resp)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedComponents, err)
	}

	hooks, err := g.parts("hooks", "Hook", raw.Hooks)
	if err != nil {
		return nil, err
	}
	bridges, err := g.parts("bridges", "Bridge", raw.Bridges)
	if err != nil {
		return nil, err
	}
	wtas, err := g.parts("wtas", "Call to action", raw.WTAs)
	if err != nil {
		return nil, err
	}
	if len(raw.GoldenNuggets) == 0 {
		return nil, fmt.Errorf("%w: missing or empty %q", ErrMalformedComponents, "golden_nuggets")
	}

	c := &script.Components{}
	for i, p := range hooks {
		c.Hooks = append(c.Hooks, script.Hook{Part: script.NewPart(fmt.Sprintf("hook-%d", i), p.Title, p.Content)})
	}
	for i, p := range bridges {
		c.Bridges = append(c.Bridges, script.Bridge{Part: script.NewPart(fmt.Sprintf("bridge-%d", i), p.Title, p.Content)})
	}
	for i, p := range wtas {
		c.WTAs = append(c.WTAs, script.NewWTA(fmt.Sprintf("wta-%d", i), p.Title, p.Content))
	}
	for i, n := range raw.GoldenNuggets {
		var points []string
		for _, bp := range n.BulletPoints {
			if bp = strings.TrimSpace(bp); bp != "" {
				points = append(points, bp)
			}
		}
		if len(points) == 0 {
			return nil, fmt.Errorf("%w: golden nugget %d has no bullet points", ErrMalformedComponents, i)
		}
		if len(points) < minBulletPoints {
			g.logger.Warn("golden nugget %d has %d bullet points", i, len(points))
		}
		if len(points) > maxBulletPoints {
			points = points[:maxBulletPoints]
		}
		title := strings.TrimSpace(n.Title)
		if title == "" {
			title = fmt.Sprintf("Golden nugget %d", i+1)
		}
		c.GoldenNuggets = append(c.GoldenNuggets, script.NewGoldenNugget(fmt.Sprintf("golden-nugget-%d", i), title, points))
	}
	return c, nil
}

func (g *ComponentGenerator) parts(key, label string, items []rawPart) ([]rawPart, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: missing or empty %q", ErrMalformedComponents, key)
	}
	if len(items) > VariantsPerPart {
		items = items[:VariantsPerPart]
	} else if len(items) < VariantsPerPart {
		g.logger.Warn("expected %d %s, got %d", VariantsPerPart, key, len(items))
	}

	out := make([]rawPart, len(items))
	for i, it := range items {
		content := strings.TrimSpace(it.Content)
		if content == "" {
			return nil, fmt.Errorf("%w: %s item %d is empty", ErrMalformedComponents, key, i)
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			title = fmt.Sprintf("%s %d", label, i+1)
		}
		out[i] = rawPart{Title: title, Content: content}
	}
	return out, nil
}

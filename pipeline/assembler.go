package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/textgen"
)

// DefaultMaxDirectives caps the voice directives placed in the script prompt.
const DefaultMaxDirectives = 10

// Assembler writes the final script from the selected components.
type Assembler struct {
	gen           textgen.Generator
	maxDirectives int
	logger        log.Logger
}

// NewAssembler creates the final stage. maxDirectives <= 0 uses DefaultMaxDirectives.
func NewAssembler(gen textgen.Generator, maxDirectives int, logger log.Logger) *Assembler {
	if maxDirectives <= 0 {
		maxDirectives = DefaultMaxDirectives
	}
	return &Assembler{gen: gen, maxDirectives: maxDirectives, logger: log.OrDefault(logger)}
}

// Assemble returns the model's script unmodified.
func (a *Assembler) Assemble(ctx context.Context, topic string, sel script.Selection, voice *script.VoiceProfile) (string, error) {
	if !sel.Valid() {
		return "", ErrIncompleteSelection
	}
	if a.gen == nil {
		return "", fmt.Errorf("no text generator configured")
	}
	return a.gen.Generate(ctx, a.Prompt(topic, sel, voice), textgen.WithTemperature(0.8))
}

// Prompt builds the script request. sel must be valid.
func (a *Assembler) Prompt(topic string, sel script.Selection, voice *script.VoiceProfile) string {
	var b strings.Builder
	b.WriteString("You are an expert short-form video scriptwriter. Write a complete, ready-to-record script.\n\n")
	fmt.Fprintf(&b, "Video idea: %s\n\n", topic)

	if voice != nil {
		writeVoice(&b, voice, a.maxDirectives)
	}

	b.WriteString("Use these selected components, in this order, smoothing the transitions between them:\n\n")
	fmt.Fprintf(&b, "HOOK:\n%s\n\n", sel.Hook.Content)
	fmt.Fprintf(&b, "BRIDGE:\n%s\n\n", sel.Bridge.Content)
	fmt.Fprintf(&b, "GOLDEN NUGGET (%s):\n", sel.GoldenNugget.Title)
	for _, p := range sel.GoldenNugget.BulletPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	fmt.Fprintf(&b, "\nCALL TO ACTION:\n%s\n\n", sel.WTA.Content)
	b.WriteString("Return only the script text, without headings or stage directions.")
	return b.String()
}

func writeVoice(b *strings.Builder, v *script.VoiceProfile, limit int) {
	id := v.VoiceProfile.CoreIdentity
	fmt.Fprintf(b, "Write in the voice of %s.\n", v.Name)
	if id.Summary != "" {
		fmt.Fprintf(b, "Persona: %s\n", id.Summary)
	}
	if len(id.DominantTones) > 0 {
		fmt.Fprintf(b, "Dominant tones: %s\n", strings.Join(id.DominantTones, ", "))
	}
	if len(id.SecondaryTones) > 0 {
		fmt.Fprintf(b, "Secondary tones: %s\n", strings.Join(id.SecondaryTones, ", "))
	}
	if len(id.UniqueQuirks) > 0 {
		fmt.Fprintf(b, "Quirks: %s\n", strings.Join(id.UniqueQuirks, "; "))
	}

	directives := v.Directives()
	if len(directives) > limit {
		directives = directives[:limit]
	}
	if len(directives) > 0 {
		b.WriteString("\nWriting directives:\n")
		for i, d := range directives {
			fmt.Fprintf(b, "%d. %s\n", i+1, d)
		}
	}

	if nc := v.Constraints(); nc != nil {
		if len(nc.WordsToAvoid) > 0 {
			fmt.Fprintf(b, "\nAvoid these words: %s\n", strings.Join(nc.WordsToAvoid, ", "))
		}
		if len(nc.TonesToAvoid) > 0 {
			fmt.Fprintf(b, "Avoid these tones: %s\n", strings.Join(nc.TonesToAvoid, ", "))
		}
	}
	b.WriteString("\n")
}

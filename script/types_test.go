package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreview(t *testing.T) {
	short := "Wake up before your phone does."
	assert.Equal(t, short, Preview(short))

	exact := strings.Repeat("x", PreviewLength)
	assert.Equal(t, exact, Preview(exact))

	long := strings.Repeat("y", PreviewLength+20)
	p := Preview(long)
	assert.Equal(t, strings.Repeat("y", PreviewLength)+"...", p)
}

func TestPreview_CountsRunes(t *testing.T) {
	long := strings.Repeat("é", PreviewLength+1)
	assert.Equal(t, strings.Repeat("é", PreviewLength)+"...", Preview(long))
}

func TestInferActionType(t *testing.T) {
	tests := []struct {
		content string
		want    ActionType
	}{
		{"Comment below with your favourite habit", ActionComment},
		{"Tell me which one you'll try", ActionComment},
		{"Follow for more morning routines", ActionFollow},
		{"SUBSCRIBE so you don't miss part two", ActionFollow},
		{"Share this with a friend who sleeps in", ActionShare},
		{"Tag someone who needs this", ActionShare},
		{"Try one habit tomorrow and see", ActionEngagement},
		// comment wins over follow
		{"Follow me and comment your routine", ActionComment},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferActionType(tt.content), tt.content)
	}
}

func TestNewGoldenNugget(t *testing.T) {
	g := NewGoldenNugget("golden-nugget-0", "Three habits", []string{"Hydrate", "Move", "Plan"})
	assert.Equal(t, "Hydrate\nMove\nPlan", g.Content)
	assert.Equal(t, g.Content, g.Preview)
	assert.Len(t, g.BulletPoints, 3)
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"hook":          CategoryHook,
		"Bridges":       CategoryBridge,
		"golden_nugget": CategoryGoldenNugget,
		"goldenNugget":  CategoryGoldenNugget,
		"wta":           CategoryWTA,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCategory("outro")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

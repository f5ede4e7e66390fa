package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleComponents() *Components {
	return &Components{
		Hooks:         []Hook{{NewPart("hook-0", "Hook 1", "h0")}, {NewPart("hook-1", "Hook 2", "h1")}},
		Bridges:       []Bridge{{NewPart("bridge-0", "Bridge 1", "b0")}},
		GoldenNuggets: []GoldenNugget{NewGoldenNugget("golden-nugget-0", "N", []string{"a", "b", "c"})},
		WTAs: []WTA{
			NewWTA("wta-0", "CTA 1", "Follow for more"),
			NewWTA("wta-1", "CTA 2", "Try it tomorrow"),
		},
	}
}

func TestAutoSelect(t *testing.T) {
	sel := AutoSelect(sampleComponents())
	require.True(t, sel.Valid())
	assert.Equal(t, "hook-0", sel.Hook.ID)
	assert.Equal(t, "bridge-0", sel.Bridge.ID)
	assert.Equal(t, "golden-nugget-0", sel.GoldenNugget.ID)
	// first engagement call to action wins over position
	assert.Equal(t, "wta-1", sel.WTA.ID)
}

func TestAutoSelect_NoEngagementFallsBackToFirst(t *testing.T) {
	c := sampleComponents()
	c.WTAs = []WTA{NewWTA("wta-0", "", "Share this"), NewWTA("wta-1", "", "Comment below")}
	sel := AutoSelect(c)
	assert.Equal(t, "wta-0", sel.WTA.ID)
}

func TestAutoSelect_Idempotent(t *testing.T) {
	c := sampleComponents()
	first := AutoSelect(c)
	second := AutoSelect(c)
	assert.Equal(t, first.Hook.ID, second.Hook.ID)
	assert.Equal(t, first.Bridge.ID, second.Bridge.ID)
	assert.Equal(t, first.GoldenNugget.ID, second.GoldenNugget.ID)
	assert.Equal(t, first.WTA.ID, second.WTA.ID)
}

func TestAutoSelect_Empty(t *testing.T) {
	sel := AutoSelect(&Components{})
	assert.False(t, sel.Valid())
	assert.Equal(t, Categories, sel.Missing())
	assert.False(t, AutoSelect(nil).Valid())
}

func TestComponentsSelect(t *testing.T) {
	c := sampleComponents()
	sel := AutoSelect(c)

	sel, err := c.Select(sel, CategoryHook, "hook-1")
	require.NoError(t, err)
	assert.Equal(t, "h1", sel.Hook.Content)

	_, err = c.Select(sel, CategoryBridge, "bridge-9")
	assert.ErrorIs(t, err, ErrComponentNotFound)

	_, err = c.Select(sel, Category("outro"), "x")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestSelectionClone(t *testing.T) {
	sel := AutoSelect(sampleComponents())
	clone := sel.Clone()
	clone.GoldenNugget.BulletPoints[0] = "changed"
	clone.Hook.Content = "changed"
	assert.Equal(t, "a", sel.GoldenNugget.BulletPoints[0])
	assert.Equal(t, "h0", sel.Hook.Content)
}

func TestDecodeVoiceProfile(t *testing.T) {
	doc := `{
		"name": "Coach Kim",
		"voiceProfile": {
			"coreIdentity": {"dominantTones": ["warm"], "secondaryTones": ["playful"]},
			"actionableSystemPromptComponents": {
				"voiceDnaSummaryDirectives": ["Use short sentences"],
				"consolidatedNegativeConstraints": {"wordsToAvoid": ["hustle"]}
			}
		}
	}`
	v, err := DecodeVoiceProfile(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "Coach Kim", v.Name)
	assert.Equal(t, []string{"Use short sentences"}, v.Directives())
	assert.Equal(t, []string{"hustle"}, v.Constraints().WordsToAvoid)

	_, err = DecodeVoiceProfile(strings.NewReader(`{"voiceProfile":{}}`))
	assert.Error(t, err)

	var none *VoiceProfile
	assert.Nil(t, none.Directives())
	assert.Nil(t, none.Constraints())
}

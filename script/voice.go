package script

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// VoiceProfile is an externally supplied persona used to steer the final script.
// The pipeline only reads it.
type VoiceProfile struct {
	Name         string      `json:"name"`
	VoiceProfile VoiceDetail `json:"voiceProfile"`
}

// VoiceDetail carries the persona description and its prompt directives.
type VoiceDetail struct {
	CoreIdentity                     CoreIdentity                      `json:"coreIdentity"`
	ActionableSystemPromptComponents *ActionableSystemPromptComponents `json:"actionableSystemPromptComponents,omitempty"`
}

// CoreIdentity describes how the persona sounds.
type CoreIdentity struct {
	Summary        string   `json:"summary,omitempty"`
	DominantTones  []string `json:"dominantTones,omitempty"`
	SecondaryTones []string `json:"secondaryTones,omitempty"`
	UniqueQuirks   []string `json:"uniqueQuirks,omitempty"`
}

// ActionableSystemPromptComponents are directives ready to embed in a prompt.
type ActionableSystemPromptComponents struct {
	VoiceDNASummaryDirectives       []string             `json:"voiceDnaSummaryDirectives,omitempty"`
	ConsolidatedNegativeConstraints *NegativeConstraints `json:"consolidatedNegativeConstraints,omitempty"`
}

// NegativeConstraints lists what the persona never says or sounds like.
type NegativeConstraints struct {
	WordsToAvoid []string `json:"wordsToAvoid,omitempty"`
	TonesToAvoid []string `json:"tonesToAvoid,omitempty"`
}

// Directives returns the writing directives, or nil.
func (v *VoiceProfile) Directives() []string {
	if v == nil || v.VoiceProfile.ActionableSystemPromptComponents == nil {
		return nil
	}
	return v.VoiceProfile.ActionableSystemPromptComponents.VoiceDNASummaryDirectives
}

// Constraints returns the negative constraints, or nil.
func (v *VoiceProfile) Constraints() *NegativeConstraints {
	if v == nil || v.VoiceProfile.ActionableSystemPromptComponents == nil {
		return nil
	}
	return v.VoiceProfile.ActionableSystemPromptComponents.ConsolidatedNegativeConstraints
}

// DecodeVoiceProfile reads a voice profile JSON document.
func DecodeVoiceProfile(r io.Reader) (*VoiceProfile, error) {
	var v VoiceProfile
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to decode voice profile: %w", err)
	}
	if v.Name == "" {
		return nil, fmt.Errorf("voice profile has no name")
	}
	return &v, nil
}

// LoadVoiceProfile reads a voice profile from a JSON file.
func LoadVoiceProfile(path string) (*VoiceProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open voice profile: %w", err)
	}
	defer f.Close()
	return DecodeVoiceProfile(f)
}

package script

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PreviewLength is the number of characters kept in a part preview.
const PreviewLength = 100

// Source is a research source shown to the user as "sources used".
// The gatherer fills Title, Link and Snippet; the extractor adds the rest.
type Source struct {
	ID                  string `json:"id,omitempty"`
	Title               string `json:"title"`
	Link                string `json:"link"`
	Snippet             string `json:"snippet"`
	ExtractedText       string `json:"extractedText,omitempty"`
	IsTextExtracted     bool   `json:"isTextExtracted"`
	TextExtractionError string `json:"textExtractionError,omitempty"`
}

// Part holds the fields shared by every script part variant.
type Part struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Preview string `json:"preview"`
}

// NewPart builds a part and computes its preview.
func NewPart(id, title, content string) Part {
	return Part{
		ID:      id,
		Title:   title,
		Content: content,
		Preview: Preview(content),
	}
}

// Hook is the opening line of a script.
type Hook struct {
	Part
}

// Bridge links the hook to the main content.
type Bridge struct {
	Part
}

// GoldenNugget is the value-delivering block of a script.
// Content is always the newline join of BulletPoints.
type GoldenNugget struct {
	Part
	BulletPoints []string `json:"bulletPoints"`
}

// NewGoldenNugget derives Content and Preview from the bullet points.
func NewGoldenNugget(id, title string, points []string) GoldenNugget {
	return GoldenNugget{
		Part:         NewPart(id, title, strings.Join(points, "\n")),
		BulletPoints: points,
	}
}

// ActionType classifies a call to action.
type ActionType string

const (
	ActionEngagement ActionType = "engagement"
	ActionFollow     ActionType = "follow"
	ActionShare      ActionType = "share"
	ActionComment    ActionType = "comment"
)

// WTA is the call to action that closes a script.
type WTA struct {
	Part
	ActionType ActionType `json:"actionType"`
}

// NewWTA builds a call to action, inferring its action type from content.
func NewWTA(id, title, content string) WTA {
	return WTA{
		Part:       NewPart(id, title, content),
		ActionType: InferActionType(content),
	}
}

var actionKeywords = []struct {
	action   ActionType
	keywords []string
}{
	{ActionComment, []string{"comment", "tell me"}},
	{ActionFollow, []string{"follow", "subscribe"}},
	{ActionShare, []string{"share", "tag"}},
}

// InferActionType scans content for action keywords. Comment keywords win over
// follow keywords, which win over share keywords.
func InferActionType(content string) ActionType {
	lower := strings.ToLower(content)
	for _, group := range actionKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.action
			}
		}
	}
	return ActionEngagement
}

// Preview truncates content to PreviewLength characters, appending "..." when cut.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}

// Components is the full set of generated variants for one topic.
type Components struct {
	Hooks         []Hook         `json:"hooks"`
	Bridges       []Bridge       `json:"bridges"`
	GoldenNuggets []GoldenNugget `json:"goldenNuggets"`
	WTAs          []WTA          `json:"wtas"`
}

// Category names one of the four script parts.
type Category string

const (
	CategoryHook         Category = "hook"
	CategoryBridge       Category = "bridge"
	CategoryGoldenNugget Category = "goldenNugget"
	CategoryWTA          Category = "wta"
)

// Categories lists the parts in script order.
var Categories = []Category{CategoryHook, CategoryBridge, CategoryGoldenNugget, CategoryWTA}

// ParseCategory accepts the canonical names plus a few common spellings.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hook", "hooks":
		return CategoryHook, nil
	case "bridge", "bridges":
		return CategoryBridge, nil
	case "goldennugget", "golden_nugget", "golden-nugget", "goldennuggets", "nugget":
		return CategoryGoldenNugget, nil
	case "wta", "wtas", "cta":
		return CategoryWTA, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

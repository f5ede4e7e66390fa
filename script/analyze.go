package script

import (
	"math"
	"regexp"
	"strings"
)

const (
	// WordsPerSecond is the assumed speaking rate.
	WordsPerSecond = 2.5

	hookWindow = 200
)

// HookIndicators are the markers scanned for in the opening of a script.
var HookIndicators = []string{"you", "your", "?", "!", "secret", "mistake", "why", "how"}

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// Analysis holds heuristic metrics for a finished script.
type Analysis struct {
	WordCount         int `json:"wordCount"`
	EstimatedDuration int `json:"estimatedDuration"`
	ReadabilityScore  int `json:"readabilityScore"`
	HookStrength      int `json:"hookStrength"`
}

// Analyze computes word count, spoken duration in seconds, readability and hook
// strength. It performs no I/O.
func Analyze(text string) Analysis {
	words := len(strings.Fields(text))

	sentences := 0
	for _, seg := range sentenceBoundary.Split(text, -1) {
		if strings.TrimSpace(seg) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	avg := float64(words) / float64(sentences)

	return Analysis{
		WordCount:         words,
		EstimatedDuration: int(math.Ceil(float64(words) / WordsPerSecond)),
		ReadabilityScore:  int(math.Round(clamp(100 - 1.5*avg))),
		HookStrength:      hookStrength(text),
	}
}

func hookStrength(text string) int {
	opening := []rune(strings.ToLower(text))
	if len(opening) > hookWindow {
		opening = opening[:hookWindow]
	}
	window := string(opening)

	matched := 0
	for _, indicator := range HookIndicators {
		if strings.Contains(window, indicator) {
			matched++
		}
	}
	score := float64(matched) / float64(len(HookIndicators)) * 100
	return int(math.Round(clamp(score)))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

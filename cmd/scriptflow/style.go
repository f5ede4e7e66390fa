package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/smallnest/scriptflow/render"
	"github.com/smallnest/scriptflow/script"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	scriptStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(76)
	labelStyle = lipgloss.NewStyle().Bold(true).Width(20)
)

func heading(s string) string {
	return headingStyle.Render(s)
}

func analysisBlock(a script.Analysis) string {
	lines := []string{
		labelStyle.Render("Words") + fmt.Sprintf("%d", a.WordCount),
		labelStyle.Render("Estimated duration") + render.Duration(a.EstimatedDuration),
		labelStyle.Render("Readability") + fmt.Sprintf("%d/100", a.ReadabilityScore),
		labelStyle.Render("Hook strength") + fmt.Sprintf("%d/100", a.HookStrength),
	}
	return strings.Join(lines, "\n")
}

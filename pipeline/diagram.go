package pipeline

import (
	"strings"

	"github.com/smallnest/scriptflow/log"
)

// DiagramFormat selects how Diagram draws the stage graphs.
type DiagramFormat string

const (
	DiagramMermaid DiagramFormat = "mermaid"
	DiagramASCII   DiagramFormat = "ascii"
)

type drawer interface {
	DrawMermaid() string
	DrawASCII() string
}

// Diagram draws the research graph followed by the script graph.
func Diagram(format DiagramFormat) (string, error) {
	c := &Controller{logger: &log.NoOpLogger{}}
	if err := c.compile(); err != nil {
		return "", err
	}

	draw := func(e drawer) string {
		if format == DiagramASCII {
			return e.DrawASCII()
		}
		return e.DrawMermaid()
	}

	var sb strings.Builder
	sb.WriteString(draw(c.draftGraph.Exporter()))
	sb.WriteString("\n")
	sb.WriteString(draw(c.scriptGraph.Exporter()))
	return sb.String(), nil
}

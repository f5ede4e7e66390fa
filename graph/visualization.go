package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter provides methods to export graphs in different formats
type Exporter[S any] struct {
	graph *StateGraph[S]
}

// NewExporter creates a new graph exporter for the given graph
func NewExporter[S any](graph *StateGraph[S]) *Exporter[S] {
	return &Exporter[S]{graph: graph}
}

// MermaidOptions defines configuration for Mermaid diagram generation
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string

	// Labels shows node descriptions instead of node names
	Labels bool
}

// DrawMermaid generates a Mermaid diagram representation of the graph
func (ge *Exporter[S]) DrawMermaid() string {
	return ge.DrawMermaidWithOptions(MermaidOptions{
		Direction: "TD",
	})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options
func (ge *Exporter[S]) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	fmt.Fprintf(&sb, "flowchart %s\n", direction)

	g := ge.graph
	if g.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString("    style START fill:#90EE90\n")
	}

	for _, name := range ge.nodeNames() {
		label := name
		if opts.Labels && g.nodes[name].Description != "" {
			label = g.nodes[name].Description
		}
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", name, strings.ReplaceAll(label, `"`, "'"))
	}
	if ge.reachesEnd() {
		sb.WriteString("    END([\"END\"])\n")
		sb.WriteString("    style END fill:#FFB6C1\n")
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    START --> %s\n", g.entryPoint)
	}
	for _, from := range sortedKeys(g.edges) {
		if _, conditional := g.conditionalEdges[from]; conditional {
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", from, g.edges[from])
	}
	for _, from := range sortedKeys(g.conditionalEdges) {
		targets := g.conditionalTargets[from]
		if len(targets) == 0 {
			fmt.Fprintf(&sb, "    %s -.-> %s_condition((?))\n", from, from)
			fmt.Fprintf(&sb, "    style %s_condition fill:#FFFFE0,stroke:#333,stroke-dasharray: 5 5\n", from)
			continue
		}
		for _, to := range targets {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
		}
	}

	if g.entryPoint != "" {
		fmt.Fprintf(&sb, "    style %s fill:#87CEEB\n", g.entryPoint)
	}
	return sb.String()
}

// DrawASCII generates an ASCII tree representation of the graph
func (ge *Exporter[S]) DrawASCII() string {
	if ge.graph.entryPoint == "" {
		return "No entry point set\n"
	}

	var sb strings.Builder
	visited := make(map[string]bool)

	sb.WriteString("Graph Execution Flow:\n")
	sb.WriteString("├── START\n")

	ge.drawASCIINode(ge.graph.entryPoint, "│   ", true, visited, &sb)

	return sb.String()
}

// drawASCIINode recursively draws ASCII representation of nodes
func (ge *Exporter[S]) drawASCIINode(nodeName string, prefix string, isLast bool, visited map[string]bool, sb *strings.Builder) {
	connector := "├──"
	nextPrefix := prefix + "│   "
	if isLast {
		connector = "└──"
		nextPrefix = prefix + "    "
	}

	if nodeName == END {
		fmt.Fprintf(sb, "%s%s %s\n", prefix, connector, nodeName)
		return
	}
	if visited[nodeName] {
		fmt.Fprintf(sb, "%s%s %s (cycle)\n", prefix, connector, nodeName)
		return
	}
	visited[nodeName] = true

	fmt.Fprintf(sb, "%s%s %s\n", prefix, connector, nodeName)

	next := ge.successors(nodeName)
	if len(next) == 0 {
		if _, ok := ge.graph.conditionalEdges[nodeName]; ok {
			fmt.Fprintf(sb, "%s└── (?)\n", nextPrefix)
		}
		return
	}
	for i, target := range next {
		ge.drawASCIINode(target, nextPrefix, i == len(next)-1, visited, sb)
	}
}

// successors returns the nodes that may follow name, in drawing order.
// Branches of a conditional edge that visit more nodes come first so END
// closes the tree.
func (ge *Exporter[S]) successors(name string) []string {
	g := ge.graph
	if _, ok := g.conditionalEdges[name]; ok {
		targets := append([]string(nil), g.conditionalTargets[name]...)
		sort.SliceStable(targets, func(i, j int) bool {
			return targets[i] != END && targets[j] == END
		})
		return targets
	}
	if to, ok := g.edges[name]; ok {
		return []string{to}
	}
	return nil
}

func (ge *Exporter[S]) nodeNames() []string {
	names := make([]string, 0, len(ge.graph.nodes))
	for name := range ge.graph.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ge *Exporter[S]) reachesEnd() bool {
	for _, to := range ge.graph.edges {
		if to == END {
			return true
		}
	}
	for _, targets := range ge.graph.conditionalTargets {
		for _, to := range targets {
			if to == END {
				return true
			}
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package graph

import (
	"context"
	"fmt"
	"slices"
)

// END is a special constant used to represent the end node in the graph.
const END = "END"

// NodeFunc transforms the state carried through the graph.
type NodeFunc[S any] func(ctx context.Context, state S) (S, error)

// Node represents a node in the graph.
type Node[S any] struct {
	// Name is the unique identifier for the node.
	Name string

	// Description describes the functionality of the node.
	Description string

	// Function is the function associated with the node.
	Function NodeFunc[S]
}

// StateGraph is a typed graph of nodes executed one at a time, following either a
// fixed edge or a conditional edge out of every node.
//
//	g := graph.NewStateGraph[Draft]()
//	g.AddNode("gather", "Gather sources", gather)
//	g.AddNode("extract", "Extract text", extract)
//	g.AddEdge("gather", "extract")
//	g.AddEdge("extract", graph.END)
//	g.SetEntryPoint("gather")
type StateGraph[S any] struct {
	// nodes is a map of node names to their corresponding Node objects
	nodes map[string]Node[S]

	// edges maps a node to the node that always follows it
	edges map[string]string

	// conditionalEdges maps a node to a function choosing the next node at runtime
	conditionalEdges map[string]func(ctx context.Context, state S) string

	// conditionalTargets lists the nodes a conditional edge may choose, when declared
	conditionalTargets map[string][]string

	// entryPoint is the name of the entry point node in the graph
	entryPoint string
}

// NewStateGraph creates an empty graph for state type S.
func NewStateGraph[S any]() *StateGraph[S] {
	return &StateGraph[S]{
		nodes:              make(map[string]Node[S]),
		edges:              make(map[string]string),
		conditionalEdges:   make(map[string]func(ctx context.Context, state S) string),
		conditionalTargets: make(map[string][]string),
	}
}

// AddNode adds a new node to the state graph with the given name, description and function.
func (g *StateGraph[S]) AddNode(name string, description string, fn NodeFunc[S]) {
	g.nodes[name] = Node[S]{
		Name:        name,
		Description: description,
		Function:    fn,
	}
}

// AddEdge adds an edge between the "from" and "to" nodes. A node has at most one
// fixed edge; adding another replaces it.
func (g *StateGraph[S]) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdge adds a conditional edge where the target node is determined at runtime.
// A conditional edge takes precedence over a fixed edge from the same node.
// targets optionally declares every node condition may return. Compile checks
// them and Invoke rejects any other choice.
func (g *StateGraph[S]) AddConditionalEdge(from string, condition func(ctx context.Context, state S) string, targets ...string) {
	g.conditionalEdges[from] = condition
	if len(targets) > 0 {
		g.conditionalTargets[from] = append([]string(nil), targets...)
	} else {
		delete(g.conditionalTargets, from)
	}
}

// SetEntryPoint sets the entry point node name for the state graph.
func (g *StateGraph[S]) SetEntryPoint(name string) {
	g.entryPoint = name
}

// Compile checks the graph wiring and returns a runnable graph.
func (g *StateGraph[S]) Compile() (*Runnable[S], error) {
	if g.entryPoint == "" {
		return nil, ErrEntryPointNotSet
	}
	if _, ok := g.nodes[g.entryPoint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, g.entryPoint)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, from)
		}
		if _, ok := g.nodes[to]; !ok && to != END {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, to)
		}
	}
	for from, targets := range g.conditionalTargets {
		for _, to := range targets {
			if _, ok := g.nodes[to]; !ok && to != END {
				return nil, fmt.Errorf("%w: %s (from %s)", ErrNodeNotFound, to, from)
			}
		}
	}
	for name := range g.nodes {
		_, fixed := g.edges[name]
		_, conditional := g.conditionalEdges[name]
		if !fixed && !conditional {
			return nil, fmt.Errorf("%w: %s", ErrNoOutgoingEdge, name)
		}
	}
	return &Runnable[S]{graph: g}, nil
}

// Exporter returns an exporter drawing the compiled graph.
func (r *Runnable[S]) Exporter() *Exporter[S] {
	return NewExporter(r.graph)
}

// Runnable is a compiled graph that can be invoked.
type Runnable[S any] struct {
	graph     *StateGraph[S]
	listeners []NodeListener[S]
	tracer    *Tracer
}

// AddListener registers a listener notified about every node event.
// Listeners are called synchronously, in registration order.
func (r *Runnable[S]) AddListener(listener NodeListener[S]) *Runnable[S] {
	r.listeners = append(r.listeners, listener)
	return r
}

// SetTracer records a span for every run and every node executed.
func (r *Runnable[S]) SetTracer(tracer *Tracer) *Runnable[S] {
	r.tracer = tracer
	return r
}

// Invoke runs the graph from its entry point until END is reached.
// When a node fails, Invoke returns the last good state and a *NodeError.
func (r *Runnable[S]) Invoke(ctx context.Context, state S) (out S, err error) {
	if r.tracer != nil {
		span := r.tracer.StartSpan(ctx, TraceEventGraphStart, r.graph.entryPoint)
		ctx = ContextWithSpan(ctx, span)
		defer func() {
			r.tracer.EndSpan(ctx, span, err)
		}()
	}

	current := r.graph.entryPoint
	for current != END {
		if err := ctx.Err(); err != nil {
			return state, &NodeError{Node: current, Err: err}
		}

		node, ok := r.graph.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %s", ErrNodeNotFound, current)
		}

		r.notify(ctx, NodeEventStart, current, state, nil)
		next, err := r.run(ctx, node, state)
		if err != nil {
			r.notify(ctx, NodeEventError, current, state, err)
			return state, &NodeError{Node: current, Err: err}
		}
		state = next
		r.notify(ctx, NodeEventComplete, current, state, nil)

		current, err = r.next(ctx, current, state)
		if err != nil {
			return state, err
		}
	}
	return state, nil
}

func (r *Runnable[S]) run(ctx context.Context, node Node[S], state S) (S, error) {
	if r.tracer == nil {
		return node.Function(ctx, state)
	}
	span := r.tracer.StartSpan(ctx, TraceEventNodeStart, node.Name)
	next, err := node.Function(ContextWithSpan(ctx, span), state)
	r.tracer.EndSpan(ctx, span, err)
	return next, err
}

func (r *Runnable[S]) next(ctx context.Context, from string, state S) (string, error) {
	if condition, ok := r.graph.conditionalEdges[from]; ok {
		to := condition(ctx, state)
		if _, known := r.graph.nodes[to]; !known && to != END {
			return "", fmt.Errorf("%w: %s", ErrNodeNotFound, to)
		}
		if targets, declared := r.graph.conditionalTargets[from]; declared && !slices.Contains(targets, to) {
			return "", fmt.Errorf("%w: %s -> %s", ErrUndeclaredTarget, from, to)
		}
		return to, nil
	}
	if to, ok := r.graph.edges[from]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNoOutgoingEdge, from)
}

func (r *Runnable[S]) notify(ctx context.Context, event NodeEvent, node string, state S, err error) {
	for _, l := range r.listeners {
		l.OnNodeEvent(ctx, event, node, state, err)
	}
}

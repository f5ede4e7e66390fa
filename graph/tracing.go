package graph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TraceEvent represents different types of events in graph execution
type TraceEvent string

const (
	// TraceEventGraphStart indicates the start of graph execution
	TraceEventGraphStart TraceEvent = "graph_start"

	// TraceEventGraphEnd indicates the end of graph execution
	TraceEventGraphEnd TraceEvent = "graph_end"

	// TraceEventNodeStart indicates the start of node execution
	TraceEventNodeStart TraceEvent = "node_start"

	// TraceEventNodeEnd indicates the end of node execution
	TraceEventNodeEnd TraceEvent = "node_end"

	// TraceEventNodeError indicates an error occurred in node execution
	TraceEventNodeError TraceEvent = "node_error"
)

// DefaultSpanLimit is the number of finished spans a Tracer keeps.
const DefaultSpanLimit = 256

// TraceSpan represents a span of execution with timing and metadata
type TraceSpan struct {
	// ID is a unique identifier for this span
	ID string

	// ParentID is the ID of the parent span (empty for root spans)
	ParentID string

	// Event indicates the type of event this span represents
	Event TraceEvent

	// NodeName is the node being executed; for graph spans, the entry point
	NodeName string

	// StartTime is when this span began
	StartTime time.Time

	// EndTime is when this span completed (zero for ongoing spans)
	EndTime time.Time

	// Duration is the total time taken (calculated when span ends)
	Duration time.Duration

	// Error contains any error that occurred during execution
	Error error
}

// TraceHook defines the interface for trace event handlers
type TraceHook interface {
	// OnEvent is called when a span starts and again when it ends
	OnEvent(ctx context.Context, span TraceSpan)
}

// TraceHookFunc is a function adapter for TraceHook
type TraceHookFunc func(ctx context.Context, span TraceSpan)

// OnEvent implements the TraceHook interface
func (f TraceHookFunc) OnEvent(ctx context.Context, span TraceSpan) {
	f(ctx, span)
}

// Tracer manages trace collection and hooks. It is safe for concurrent use
// and keeps the most recent finished spans.
type Tracer struct {
	mu    sync.Mutex
	hooks []TraceHook
	spans []TraceSpan
	limit int
	seq   atomic.Uint64
	now   func() time.Time
}

// NewTracer creates a new tracer instance
func NewTracer() *Tracer {
	return &Tracer{limit: DefaultSpanLimit, now: time.Now}
}

// AddHook registers a new trace hook
func (t *Tracer) AddHook(hook TraceHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// StartSpan creates a new trace span, parented to the span carried by ctx.
func (t *Tracer) StartSpan(ctx context.Context, event TraceEvent, nodeName string) *TraceSpan {
	span := &TraceSpan{
		ID:        fmt.Sprintf("span-%d", t.seq.Add(1)),
		Event:     event,
		NodeName:  nodeName,
		StartTime: t.now(),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.ParentID = parent.ID
	}
	t.notify(ctx, *span)
	return span
}

// EndSpan completes a trace span
func (t *Tracer) EndSpan(ctx context.Context, span *TraceSpan, err error) {
	span.EndTime = t.now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	span.Error = err

	switch {
	case span.Event == TraceEventNodeStart && err != nil:
		span.Event = TraceEventNodeError
	case span.Event == TraceEventNodeStart:
		span.Event = TraceEventNodeEnd
	case span.Event == TraceEventGraphStart:
		span.Event = TraceEventGraphEnd
	}

	t.mu.Lock()
	t.spans = append(t.spans, *span)
	if over := len(t.spans) - t.limit; over > 0 {
		t.spans = append(t.spans[:0:0], t.spans[over:]...)
	}
	t.mu.Unlock()

	t.notify(ctx, *span)
}

func (t *Tracer) notify(ctx context.Context, span TraceSpan) {
	t.mu.Lock()
	hooks := append([]TraceHook(nil), t.hooks...)
	t.mu.Unlock()
	for _, hook := range hooks {
		hook.OnEvent(ctx, span)
	}
}

// GetSpans returns the finished spans, oldest first
func (t *Tracer) GetSpans() []TraceSpan {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TraceSpan(nil), t.spans...)
}

// Clear removes all collected spans
func (t *Tracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = nil
}

type spanContextKey struct{}

// ContextWithSpan returns a new context with the span stored
func ContextWithSpan(ctx context.Context, span *TraceSpan) context.Context {
	return context.WithValue(ctx, spanContextKey{}, span)
}

// SpanFromContext extracts a span from context
func SpanFromContext(ctx context.Context) *TraceSpan {
	if span, ok := ctx.Value(spanContextKey{}).(*TraceSpan); ok {
		return span
	}
	return nil
}

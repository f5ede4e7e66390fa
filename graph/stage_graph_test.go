package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int
	Path  []string
}

func step(name string) NodeFunc[counter] {
	return func(ctx context.Context, s counter) (counter, error) {
		s.Count++
		s.Path = append(s.Path, name)
		return s, nil
	}
}

func TestStateGraph_Linear(t *testing.T) {
	g := NewStateGraph[counter]()
	g.AddNode("a", "first", step("a"))
	g.AddNode("b", "second", step("b"))
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counter{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"a", "b"}, out.Path)
}

func TestStateGraph_ConditionalEdge(t *testing.T) {
	g := NewStateGraph[counter]()
	g.AddNode("a", "first", step("a"))
	g.AddNode("b", "optional", step("b"))
	g.AddEdge("b", END)
	g.AddConditionalEdge("a", func(ctx context.Context, s counter) string {
		if s.Count > 5 {
			return "b"
		}
		return END
	})
	g.SetEntryPoint("a")

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, out.Path)

	out, err = r.Invoke(context.Background(), counter{Count: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Path)
}

func TestStateGraph_CompileErrors(t *testing.T) {
	g := NewStateGraph[counter]()
	_, err := g.Compile()
	assert.ErrorIs(t, err, ErrEntryPointNotSet)

	g.AddNode("a", "", step("a"))
	g.SetEntryPoint("a")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNoOutgoingEdge)

	g.AddEdge("a", "missing")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)

	g.SetEntryPoint("nope")
	_, err = g.Compile()
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestStateGraph_NodeErrorStopsExecution(t *testing.T) {
	boom := errors.New("boom")
	g := NewStateGraph[counter]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", func(ctx context.Context, s counter) (counter, error) {
		return s, boom
	})
	g.AddNode("c", "", step("c"))
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("c", END)
	g.SetEntryPoint("a")

	r, err := g.Compile()
	require.NoError(t, err)

	out, err := r.Invoke(context.Background(), counter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "b", nodeErr.Node)
	assert.Equal(t, []string{"a"}, out.Path)
}

func TestStateGraph_Listeners(t *testing.T) {
	g := NewStateGraph[counter]()
	g.AddNode("a", "", step("a"))
	g.AddNode("b", "", step("b"))
	g.AddEdge("a", "b")
	g.AddEdge("b", END)
	g.SetEntryPoint("a")

	r, err := g.Compile()
	require.NoError(t, err)

	var events []string
	r.AddListener(NodeListenerFunc[counter](func(ctx context.Context, event NodeEvent, node string, s counter, err error) {
		events = append(events, node+":"+string(event))
	}))

	_, err = r.Invoke(context.Background(), counter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:start", "a:complete", "b:start", "b:complete"}, events)
}

func TestStateGraph_CanceledContext(t *testing.T) {
	g := NewStateGraph[counter]()
	g.AddNode("a", "", step("a"))
	g.AddEdge("a", END)
	g.SetEntryPoint("a")
	r, err := g.Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := r.Invoke(ctx, counter{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, out.Count)
}

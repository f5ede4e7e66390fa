// Package graph runs typed state through a directed graph of named nodes.
//
// A StateGraph[S] holds nodes, fixed edges and conditional edges. Compile checks
// the wiring and returns a Runnable that executes one node at a time, handing
// each node the state produced by the previous one, until END is reached.
//
//	g := graph.NewStateGraph[Draft]()
//	g.AddNode("gather", "Gather sources", gather)
//	g.AddNode("extract", "Extract text", extract)
//	g.AddEdge("gather", "extract")
//	g.AddConditionalEdge("extract", func(ctx context.Context, d Draft) string {
//		if d.Done {
//			return graph.END
//		}
//		return "gather"
//	}, "gather", graph.END)
//	g.SetEntryPoint("gather")
//
//	r, err := g.Compile()
//	if err != nil {
//		return err
//	}
//	out, err := r.Invoke(ctx, Draft{})
//
// A failing node stops the run. Invoke returns the last good state together
// with a *NodeError naming the node.
//
// Listeners registered with AddListener observe node start, completion and
// failure. A Tracer set with SetTracer records timed spans for every run and
// every node. Exporter draws the graph as Mermaid or as an ASCII tree.
package graph

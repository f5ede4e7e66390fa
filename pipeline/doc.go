// Package pipeline turns a one-line video idea into a finished short-form
// script.
//
// A Controller owns one session and moves it through these steps:
//
//	idle -> gathering-sources -> extracting-content -> generating-components
//	     -> selecting-components -> generating-script -> complete
//
// complete can go back to selecting-components, and any asynchronous step can
// fail into error. Gathering and extraction never fail; they fall back to a
// synthetic source or to the search snippet. Component generation and script
// writing fail the session instead.
//
// The asynchronous steps run as two graph.StateGraph pipelines:
//
//	gather -> extract -> generate -> END
//	assemble -> analyze -> [archive] -> END
//
// Diagram draws both graphs. Timings reports how long each stage took.
//
// Node completions drive the phase changes. Every run carries an epoch, and
// Reset or a new StartPipeline cancels the run in flight and makes its results
// stale.
//
// Example:
//
//	gen, _ := textgen.New(textgen.Config{Provider: "openai", APIKey: key})
//	c, err := pipeline.NewController(gen, tool.NewWebExtractor())
//	if err != nil {
//	    return err
//	}
//	if err := c.StartPipeline(ctx, "5 morning habits"); err != nil {
//	    return err
//	}
//	_ = c.SelectComponent(script.CategoryHook, "hook-2")
//	if err := c.RequestFinalScript(ctx); err != nil {
//	    return err
//	}
//	fmt.Println(c.State().FinalScript)
package pipeline

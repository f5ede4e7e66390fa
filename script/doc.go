// Package script defines the data contracts of the scriptwriting pipeline.
//
// A script is built from four parts: a hook that grabs attention, a bridge that
// leads into the content, a golden nugget that delivers the value, and a call to
// action (WTA) that closes it. The component generator produces several variants
// of each part; a Selection holds the chosen one per part and is valid once all
// four are set.
//
// Analyze computes heuristic metrics for a finished script:
//
//	a := script.Analyze(text)
//	fmt.Println(a.WordCount, a.EstimatedDuration, a.HookStrength)
package script

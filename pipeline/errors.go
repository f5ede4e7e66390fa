package pipeline

import "errors"

var (
	// ErrEmptyTopic is returned by StartPipeline for a blank video idea.
	ErrEmptyTopic = errors.New("video idea must not be empty")

	// ErrIncompleteSelection is returned when a script is requested before all
	// four parts are chosen.
	ErrIncompleteSelection = errors.New("please select all components before generating the script")

	// ErrInvalidTransition is returned for a command the current step does not accept.
	ErrInvalidTransition = errors.New("command not allowed in the current step")

	// ErrSuperseded is returned by a run whose results were discarded because
	// the pipeline was reset or restarted while it was in flight.
	ErrSuperseded = errors.New("pipeline run superseded")

	// ErrMalformedComponents is returned when the component response cannot be used.
	ErrMalformedComponents = errors.New("malformed components response")
)

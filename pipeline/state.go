package pipeline

import (
	"github.com/smallnest/scriptflow/script"
)

// Step names a pipeline state.
type Step string

const (
	StepIdle                 Step = "idle"
	StepGatheringSources     Step = "gathering-sources"
	StepExtractingContent    Step = "extracting-content"
	StepGeneratingComponents Step = "generating-components"
	StepSelectingComponents  Step = "selecting-components"
	StepGeneratingScript     Step = "generating-script"
	StepComplete             Step = "complete"
	StepError                Step = "error"
)

// Generating reports whether s is one of the asynchronous stages.
func (s Step) Generating() bool {
	switch s {
	case StepGatheringSources, StepExtractingContent, StepGeneratingComponents, StepGeneratingScript:
		return true
	}
	return false
}

// Phase is the controller state. Each variant carries only the fields that
// exist in its step.
type Phase interface {
	Step() Step
	fill(*State)
}

// Idle is the initial state.
type Idle struct{}

// GatheringSources runs the source gatherer.
type GatheringSources struct {
	Topic string
}

// ExtractingContent runs the content extractor.
type ExtractingContent struct {
	Topic   string
	Sources []script.Source
}

// GeneratingComponents runs the component generator.
type GeneratingComponents struct {
	Topic   string
	Sources []script.Source
}

// SelectingComponents waits for the user to pick one variant per part.
// Notice holds a message for the user, such as an incomplete selection.
type SelectingComponents struct {
	Topic      string
	Sources    []script.Source
	Components *script.Components
	Selection  script.Selection
	Notice     string
}

// GeneratingScript runs the final script assembler.
type GeneratingScript struct {
	Topic      string
	Sources    []script.Source
	Components *script.Components
	Selection  script.Selection
}

// Complete holds a finished script. ArchiveID is set once the script is archived.
type Complete struct {
	Topic      string
	Sources    []script.Source
	Components *script.Components
	Selection  script.Selection
	Script     string
	Analysis   script.Analysis
	ArchiveID  string
}

// Failed is entered when a stage fails. Results of earlier stages stay
// visible for inspection.
type Failed struct {
	Stage      Step
	Message    string
	Topic      string
	Sources    []script.Source
	Components *script.Components
	Selection  script.Selection
}

func (Idle) Step() Step                 { return StepIdle }
func (GatheringSources) Step() Step     { return StepGatheringSources }
func (ExtractingContent) Step() Step    { return StepExtractingContent }
func (GeneratingComponents) Step() Step { return StepGeneratingComponents }
func (SelectingComponents) Step() Step  { return StepSelectingComponents }
func (GeneratingScript) Step() Step     { return StepGeneratingScript }
func (Complete) Step() Step             { return StepComplete }
func (Failed) Step() Step               { return StepError }

func (Idle) fill(*State) {}

func (p GatheringSources) fill(s *State) {
	s.VideoIdea = p.Topic
}

func (p ExtractingContent) fill(s *State) {
	s.VideoIdea = p.Topic
	s.Sources = p.Sources
}

func (p GeneratingComponents) fill(s *State) {
	s.VideoIdea = p.Topic
	s.Sources = p.Sources
}

func (p SelectingComponents) fill(s *State) {
	s.VideoIdea = p.Topic
	s.Sources = p.Sources
	s.Components = p.Components
	s.SelectedComponents = p.Selection
	s.Notice = p.Notice
}

func (p GeneratingScript) fill(s *State) {
	s.VideoIdea = p.Topic
	s.Sources = p.Sources
	s.Components = p.Components
	s.SelectedComponents = p.Selection
}

func (p Complete) fill(s *State) {
	s.VideoIdea = p.Topic
	s.Sources = p.Sources
	s.Components = p.Components
	s.SelectedComponents = p.Selection
	s.FinalScript = p.Script
	a := p.Analysis
	s.Analysis = &a
	s.ArchiveID = p.ArchiveID
}

func (p Failed) fill(s *State) {
	s.VideoIdea = p.Topic
	s.Sources = p.Sources
	s.Components = p.Components
	s.SelectedComponents = p.Selection
	s.Error = p.Message
	s.FailedStep = p.Stage
}

// State is the read-only view of a controller handed to the UI layer.
type State struct {
	Step               Step               `json:"step"`
	VideoIdea          string             `json:"videoIdea"`
	Sources            []script.Source    `json:"sources"`
	Components         *script.Components `json:"components"`
	SelectedComponents script.Selection   `json:"selectedComponents"`
	FinalScript        string             `json:"finalScript"`
	Error              string             `json:"error,omitempty"`
	FailedStep         Step               `json:"failedStep,omitempty"`
	Analysis           *script.Analysis   `json:"analysis"`
	Notice             string             `json:"notice,omitempty"`
	ArchiveID          string             `json:"archiveId,omitempty"`

	CanGenerateScript bool `json:"canGenerateScript"`
	IsGenerating      bool `json:"isGenerating"`
	HasError          bool `json:"hasError"`
	IsComplete        bool `json:"isComplete"`
}

// Snapshot flattens p into a State. Sources and the selection are copied;
// Components is shared and must not be modified.
func Snapshot(p Phase) State {
	s := State{Step: p.Step(), Sources: []script.Source{}}
	p.fill(&s)
	s.Sources = append([]script.Source{}, s.Sources...)
	s.SelectedComponents = s.SelectedComponents.Clone()

	s.CanGenerateScript = s.SelectedComponents.Valid()
	s.IsGenerating = s.Step.Generating()
	s.HasError = s.Step == StepError
	s.IsComplete = s.Step == StepComplete
	return s
}

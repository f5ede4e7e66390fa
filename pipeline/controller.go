package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallnest/scriptflow/graph"
	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/store"
	"github.com/smallnest/scriptflow/textgen"
	"github.com/smallnest/scriptflow/tool"
)

const (
	nodeGather   = "gather"
	nodeExtract  = "extract"
	nodeGenerate = "generate"
	nodeAssemble = "assemble"
	nodeAnalyze  = "analyze"
	nodeArchive  = "archive"
)

// failurePrefix is the message placed in state when a stage fails.
var failurePrefix = map[Step]string{
	StepGatheringSources:     "failed to gather sources",
	StepExtractingContent:    "failed to extract content",
	StepGeneratingComponents: "failed to generate script components",
	StepGeneratingScript:     "failed to generate script",
}

const archiveTimeout = 10 * time.Second

// draft flows through the research half of the pipeline.
type draft struct {
	Topic      string
	Sources    []script.Source
	Components *script.Components
}

// scriptRun flows through the script half of the pipeline.
type scriptRun struct {
	Topic     string
	Sources   []script.Source
	Selection script.Selection
	Voice     *script.VoiceProfile
	Script    string
	Analysis  script.Analysis
	ArchiveID string
}

type epochKey struct{}

func epochOf(ctx context.Context) uint64 {
	e, _ := ctx.Value(epochKey{}).(uint64)
	return e
}

// Controller owns the state of one scriptwriting session. All methods are
// safe for concurrent use. Stage calls run outside the lock; their results
// are applied only while the run that produced them is still current.
type Controller struct {
	gatherer  *Gatherer
	extractor *ContentExtractor
	generator *ComponentGenerator
	assembler *Assembler
	store     store.ScriptStore
	logger    log.Logger

	draftGraph  *graph.Runnable[draft]
	scriptGraph *graph.Runnable[scriptRun]
	tracer      *graph.Tracer

	mu      sync.Mutex
	phase   Phase
	voice   *script.VoiceProfile
	epoch   uint64
	cancel  context.CancelFunc
	subs    map[int]chan State
	nextSub int
}

type options struct {
	searcher       tool.Searcher
	store          store.ScriptStore
	logger         log.Logger
	voice          *script.VoiceProfile
	maxSources     int
	maxConcurrency int
	maxDirectives  int
}

// Option configures a Controller.
type Option func(*options)

// WithSearch tries web search before asking the model for sources.
func WithSearch(s tool.Searcher) Option {
	return func(o *options) {
		o.searcher = s
	}
}

// WithStore archives every finished script.
func WithStore(s store.ScriptStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLogger sets the logger used by the controller and its stages.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithVoice sets the initial voice profile.
func WithVoice(v *script.VoiceProfile) Option {
	return func(o *options) {
		o.voice = v
	}
}

// WithSourceLimit caps the number of research sources.
func WithSourceLimit(n int) Option {
	return func(o *options) {
		o.maxSources = n
	}
}

// WithConcurrency bounds parallel content extraction.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

// WithDirectiveLimit caps the voice directives sent to the model.
func WithDirectiveLimit(n int) Option {
	return func(o *options) {
		o.maxDirectives = n
	}
}

// NewController wires the pipeline stages around a text generator and a
// content extractor.
func NewController(gen textgen.Generator, ext tool.Extractor, opts ...Option) (*Controller, error) {
	if gen == nil {
		return nil, fmt.Errorf("text generator is required")
	}
	if ext == nil {
		return nil, fmt.Errorf("content extractor is required")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.OrDefault(o.logger)

	gopts := []GathererOption{WithMaxSources(o.maxSources), WithGathererLogger(logger)}
	if o.searcher != nil {
		gopts = append(gopts, WithSearcher(o.searcher))
	}

	c := &Controller{
		gatherer:  NewGatherer(gen, gopts...),
		extractor: NewContentExtractor(ext, o.maxConcurrency, logger),
		generator: NewComponentGenerator(gen, logger),
		assembler: NewAssembler(gen, o.maxDirectives, logger),
		store:     o.store,
		logger:    logger,
		phase:     Idle{},
		voice:     o.voice,
		subs:      make(map[int]chan State),
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) compile() error {
	c.tracer = graph.NewTracer()
	c.tracer.AddHook(graph.TraceHookFunc(c.logSpan))

	dg := graph.NewStateGraph[draft]()
	dg.AddNode(nodeGather, "Gather research sources", func(ctx context.Context, d draft) (draft, error) {
		d.Sources = c.gatherer.Gather(ctx, d.Topic)
		return d, nil
	})
	dg.AddNode(nodeExtract, "Extract source text", func(ctx context.Context, d draft) (draft, error) {
		d.Sources = c.extractor.Extract(ctx, d.Sources)
		return d, nil
	})
	dg.AddNode(nodeGenerate, "Generate script components", func(ctx context.Context, d draft) (draft, error) {
		comps, err := c.generator.Generate(ctx, d.Topic, d.Sources)
		if err != nil {
			return d, err
		}
		d.Components = comps
		return d, nil
	})
	dg.AddEdge(nodeGather, nodeExtract)
	dg.AddEdge(nodeExtract, nodeGenerate)
	dg.AddEdge(nodeGenerate, graph.END)
	dg.SetEntryPoint(nodeGather)

	draftRunnable, err := dg.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile draft graph: %w", err)
	}
	c.draftGraph = draftRunnable.
		AddListener(graph.NodeListenerFunc[draft](c.onDraftEvent)).
		SetTracer(c.tracer)

	sg := graph.NewStateGraph[scriptRun]()
	sg.AddNode(nodeAssemble, "Write the final script", func(ctx context.Context, r scriptRun) (scriptRun, error) {
		text, err := c.assembler.Assemble(ctx, r.Topic, r.Selection, r.Voice)
		if err != nil {
			return r, err
		}
		r.Script = text
		return r, nil
	})
	sg.AddNode(nodeAnalyze, "Analyze the script", func(ctx context.Context, r scriptRun) (scriptRun, error) {
		r.Analysis = script.Analyze(r.Script)
		return r, nil
	})
	sg.AddNode(nodeArchive, "Archive the script", c.archive)
	sg.AddEdge(nodeAssemble, nodeAnalyze)
	sg.AddConditionalEdge(nodeAnalyze, func(ctx context.Context, r scriptRun) string {
		if c.store == nil {
			return graph.END
		}
		return nodeArchive
	}, nodeArchive, graph.END)
	sg.AddEdge(nodeArchive, graph.END)
	sg.SetEntryPoint(nodeAssemble)

	scriptRunnable, err := sg.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile script graph: %w", err)
	}
	c.scriptGraph = scriptRunnable.
		AddListener(graph.NodeListenerFunc[scriptRun](c.onScriptEvent)).
		SetTracer(c.tracer)
	return nil
}

func (c *Controller) logSpan(ctx context.Context, span graph.TraceSpan) {
	switch span.Event {
	case graph.TraceEventNodeEnd:
		c.logger.Debug("stage %s finished in %s", span.NodeName, span.Duration)
	case graph.TraceEventNodeError:
		c.logger.Debug("stage %s failed after %s", span.NodeName, span.Duration)
	case graph.TraceEventGraphEnd:
		c.logger.Debug("run from %s finished in %s", span.NodeName, span.Duration)
	}
}

// Timings returns the most recent stage and run spans, oldest first.
func (c *Controller) Timings() []graph.TraceSpan {
	return c.tracer.GetSpans()
}

// archive never fails the run; a finished script stays finished.
func (c *Controller) archive(ctx context.Context, r scriptRun) (scriptRun, error) {
	voiceName := ""
	if r.Voice != nil {
		voiceName = r.Voice.Name
	}
	rec := store.NewRecord(r.Topic, r.Script, r.Selection, r.Sources, r.Analysis, voiceName)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := c.store.Save(saveCtx, rec); err != nil {
		c.logger.Warn("failed to archive script for %q: %v", r.Topic, err)
		return r, nil
	}
	r.ArchiveID = rec.ID
	c.logger.Info("archived script %s for %q", rec.ID, r.Topic)
	return r, nil
}

func (c *Controller) onDraftEvent(ctx context.Context, event graph.NodeEvent, node string, d draft, err error) {
	if event != graph.NodeEventComplete {
		return
	}
	c.update(epochOf(ctx), func(p Phase) (Phase, bool) {
		switch cur := p.(type) {
		case GatheringSources:
			if node == nodeGather {
				return ExtractingContent{Topic: cur.Topic, Sources: d.Sources}, true
			}
		case ExtractingContent:
			if node == nodeExtract {
				return GeneratingComponents{Topic: cur.Topic, Sources: d.Sources}, true
			}
		case GeneratingComponents:
			if node == nodeGenerate {
				return SelectingComponents{
					Topic:      cur.Topic,
					Sources:    cur.Sources,
					Components: d.Components,
					Selection:  script.AutoSelect(d.Components),
				}, true
			}
		}
		return p, false
	})
}

func (c *Controller) onScriptEvent(ctx context.Context, event graph.NodeEvent, node string, r scriptRun, err error) {
	if event != graph.NodeEventComplete {
		return
	}
	c.update(epochOf(ctx), func(p Phase) (Phase, bool) {
		switch cur := p.(type) {
		case GeneratingScript:
			if node == nodeAnalyze {
				return Complete{
					Topic:      cur.Topic,
					Sources:    cur.Sources,
					Components: cur.Components,
					Selection:  cur.Selection,
					Script:     r.Script,
					Analysis:   r.Analysis,
				}, true
			}
		case Complete:
			if node == nodeArchive && r.ArchiveID != "" {
				cur.ArchiveID = r.ArchiveID
				return cur, true
			}
		}
		return p, false
	})
}

// update applies fn to the current phase when epoch is still current.
func (c *Controller) update(epoch uint64, fn func(Phase) (Phase, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	next, changed := fn(c.phase)
	if !changed {
		return
	}
	if next.Step() != c.phase.Step() {
		c.logger.Info("pipeline step %s -> %s", c.phase.Step(), next.Step())
	}
	c.phase = next
	c.publishLocked()
}

// beginLocked starts a new run in phase p, cancelling any run in flight.
func (c *Controller) beginLocked(ctx context.Context, p Phase) (context.Context, uint64) {
	if c.cancel != nil {
		c.cancel()
	}
	c.epoch++
	runCtx, cancel := context.WithCancel(context.WithValue(ctx, epochKey{}, c.epoch))
	c.cancel = cancel
	c.phase = p
	c.publishLocked()
	return runCtx, c.epoch
}

// settle records the outcome of a run.
func (c *Controller) settle(epoch uint64, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch == c.epoch && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if epoch != c.epoch {
		return ErrSuperseded
	}
	if err == nil {
		return nil
	}

	cause := err
	var nodeErr *graph.NodeError
	if errors.As(err, &nodeErr) {
		if nodeErr.Node == nodeArchive {
			c.logger.Warn("archive skipped: %v", nodeErr.Err)
			return nil
		}
		cause = nodeErr.Err
	}

	stage := c.phase.Step()
	prefix, ok := failurePrefix[stage]
	if !ok {
		prefix = "pipeline failed"
	}
	msg := fmt.Sprintf("%s: %v", prefix, cause)
	c.logger.Error("%s", msg)

	s := Snapshot(c.phase)
	c.phase = Failed{
		Stage:      stage,
		Message:    msg,
		Topic:      s.VideoIdea,
		Sources:    s.Sources,
		Components: s.Components,
		Selection:  s.SelectedComponents,
	}
	c.publishLocked()
	return err
}

// StartPipeline runs gathering, extraction and component generation for
// topic. It returns once the pipeline is selecting components or has failed.
// A blank topic is rejected without touching the state.
func (c *Controller) StartPipeline(ctx context.Context, topic string) error {
	run, err := c.BeginPipeline(ctx, topic)
	if err != nil {
		return err
	}
	return run()
}

// BeginPipeline enters gathering-sources for topic and returns the function
// running the remaining stages. The state has changed by the time it returns.
func (c *Controller) BeginPipeline(ctx context.Context, topic string) (func() error, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	c.mu.Lock()
	runCtx, epoch := c.beginLocked(ctx, GatheringSources{Topic: topic})
	c.mu.Unlock()

	c.logger.Info("pipeline started for %q", topic)
	return func() error {
		_, err := c.draftGraph.Invoke(runCtx, draft{Topic: topic})
		return c.settle(epoch, err)
	}, nil
}

// SelectComponent replaces the chosen variant of one category.
func (c *Controller) SelectComponent(category script.Category, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.phase.(SelectingComponents)
	if !ok {
		return fmt.Errorf("%w: cannot select components while %s", ErrInvalidTransition, c.phase.Step())
	}
	sel, err := p.Components.Select(p.Selection, category, id)
	if err != nil {
		return err
	}
	p.Selection = sel
	p.Notice = ""
	c.phase = p
	c.publishLocked()
	return nil
}

// RequestFinalScript writes the script from the current selection. With an
// incomplete selection it only sets a notice and returns ErrIncompleteSelection.
// It may also be called again after the script stage failed.
func (c *Controller) RequestFinalScript(ctx context.Context) error {
	run, err := c.BeginFinalScript(ctx)
	if err != nil {
		return err
	}
	return run()
}

// BeginFinalScript enters generating-script and returns the function writing,
// analyzing and archiving the script. Its errors match RequestFinalScript.
func (c *Controller) BeginFinalScript(ctx context.Context) (func() error, error) {
	c.mu.Lock()

	var next GeneratingScript
	switch p := c.phase.(type) {
	case SelectingComponents:
		if missing := p.Selection.Missing(); len(missing) > 0 {
			p.Notice = fmt.Sprintf("%s (missing: %s)", ErrIncompleteSelection.Error(), joinCategories(missing))
			c.phase = p
			c.publishLocked()
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: missing %s", ErrIncompleteSelection, joinCategories(missing))
		}
		next = GeneratingScript{Topic: p.Topic, Sources: p.Sources, Components: p.Components, Selection: p.Selection}
	case Failed:
		if p.Stage != StepGeneratingScript || !p.Selection.Valid() {
			c.mu.Unlock()
			return nil, fmt.Errorf("%w: cannot generate a script after %s failed", ErrInvalidTransition, p.Stage)
		}
		next = GeneratingScript{Topic: p.Topic, Sources: p.Sources, Components: p.Components, Selection: p.Selection}
	default:
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot generate a script while %s", ErrInvalidTransition, p.Step())
	}

	voice := c.voice
	runCtx, epoch := c.beginLocked(ctx, next)
	c.mu.Unlock()

	in := scriptRun{
		Topic:     next.Topic,
		Sources:   next.Sources,
		Selection: next.Selection.Clone(),
		Voice:     voice,
	}
	return func() error {
		_, err := c.scriptGraph.Invoke(runCtx, in)
		return c.settle(epoch, err)
	}, nil
}

// BackToSelection returns from a finished script to component selection,
// keeping the components and selection and dropping the script.
func (c *Controller) BackToSelection() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.phase.(Complete)
	if !ok {
		return fmt.Errorf("%w: cannot go back to selection while %s", ErrInvalidTransition, c.phase.Step())
	}
	c.phase = SelectingComponents{
		Topic:      p.Topic,
		Sources:    p.Sources,
		Components: p.Components,
		Selection:  p.Selection,
	}
	c.publishLocked()
	return nil
}

// Reset returns to idle from any state. A run in flight is cancelled and its
// results are discarded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	c.phase = Idle{}
	c.publishLocked()
}

// SetVoiceProfile sets the voice used by the next script request. nil clears it.
func (c *Controller) SetVoiceProfile(v *script.VoiceProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = v
}

// VoiceProfile returns the current voice profile, or nil.
func (c *Controller) VoiceProfile() *script.VoiceProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voice
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot(c.phase)
}

const subscriberBuffer = 16

// Subscribe returns a channel receiving a snapshot after every change,
// starting with the current state. A subscriber that falls behind loses its
// oldest pending snapshots. Call cancel to unsubscribe.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan State, subscriberBuffer)
	ch <- Snapshot(c.phase)
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Close resets the controller and closes every subscription.
func (c *Controller) Close() {
	c.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) publishLocked() {
	if len(c.subs) == 0 {
		return
	}
	s := Snapshot(c.phase)
	for _, ch := range c.subs {
		select {
		case ch <- s:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func joinCategories(cats []script.Category) string {
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = string(cat)
	}
	return strings.Join(names, ", ")
}

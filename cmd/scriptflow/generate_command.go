package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/scriptflow/graph"
	"github.com/smallnest/scriptflow/pipeline"
	"github.com/smallnest/scriptflow/render"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/store"
)

type generateOptions struct {
	picks          map[script.Category]*string
	voicePath      string
	format         string
	outPath        string
	noArchive      bool
	showComponents bool
	timings        bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var hook, bridge, nugget, wta string
	opts := generateOptions{
		picks: map[script.Category]*string{
			script.CategoryHook:         &hook,
			script.CategoryBridge:       &bridge,
			script.CategoryGoldenNugget: &nugget,
			script.CategoryWTA:          &wta,
		},
	}

	cmd := &cobra.Command{
		Use:   "generate <video idea>",
		Short: "Research a topic, generate script parts and write the final script",
		Long: `Runs the whole pipeline for one video idea. The first variant of every part is
chosen unless --hook, --bridge, --nugget or --wta name another one
(run with --show-components to see the ids).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, ctx, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&hook, "hook", "", "Hook id to use, e.g. hook-2")
	cmd.Flags().StringVar(&bridge, "bridge", "", "Bridge id to use")
	cmd.Flags().StringVar(&nugget, "nugget", "", "Golden nugget id to use")
	cmd.Flags().StringVar(&wta, "wta", "", "Call to action id to use")
	cmd.Flags().StringVar(&opts.voicePath, "voice", "", "Voice profile JSON file (overrides pipeline.voice_profile)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: md, html or txt (default: styled terminal output)")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write the rendered script to a file")
	cmd.Flags().BoolVar(&opts.noArchive, "no-archive", false, "Do not save the script to the configured store")
	cmd.Flags().BoolVar(&opts.showComponents, "show-components", false, "Print every generated variant and the sources")
	cmd.Flags().BoolVar(&opts.timings, "timings", false, "Print how long every stage took")
	return cmd
}

func runGenerate(cmd *cobra.Command, ctx *commandContext, topic string, opts generateOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.logger(cfg)

	gen, err := ctx.newGenerator(cfg)
	if err != nil {
		return err
	}

	var archive store.ScriptStore
	if !opts.noArchive && cfg.Store.Backend != "memory" {
		archive, err = ctx.newStore(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer archive.Close()
	}

	ctrlOpts, err := ctx.controllerOptions(cfg, logger, archive)
	if err != nil {
		return err
	}
	if opts.voicePath != "" {
		voice, err := script.LoadVoiceProfile(opts.voicePath)
		if err != nil {
			return err
		}
		ctrlOpts = append(ctrlOpts, pipeline.WithVoice(voice))
	}

	ctrl, err := pipeline.NewController(gen, ctx.newExtractor(cfg), ctrlOpts...)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	stderr := cmd.ErrOrStderr()
	stopProgress := followProgress(ctrl, stderr)
	defer stopProgress()

	if err := ctrl.StartPipeline(cmd.Context(), topic); err != nil {
		return stageError(ctrl, err)
	}

	st := ctrl.State()
	out := cmd.OutOrStdout()
	if opts.showComponents {
		printComponents(out, st)
	}

	for _, category := range script.Categories {
		id := strings.TrimSpace(*opts.picks[category])
		if id == "" {
			continue
		}
		if err := ctrl.SelectComponent(category, id); err != nil {
			return err
		}
	}

	if err := ctrl.RequestFinalScript(cmd.Context()); err != nil {
		return stageError(ctrl, err)
	}
	stopProgress()

	st = ctrl.State()
	voiceName := ""
	if v := ctrl.VoiceProfile(); v != nil {
		voiceName = v.Name
	}
	doc, ok := render.FromState(st, voiceName)
	if !ok {
		return fmt.Errorf("pipeline ended in %s without a script", st.Step)
	}
	if st.ArchiveID != "" {
		fmt.Fprintf(stderr, "%s\n", stepStyle.Render("archived as "+st.ArchiveID))
	}
	if opts.timings {
		printTimings(stderr, ctrl.Timings())
	}
	return writeOutput(out, doc, opts.format, opts.outPath)
}

// followProgress prints every step change to w until the returned func is called.
func followProgress(ctrl *pipeline.Controller, w io.Writer) func() {
	states, cancel := ctrl.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		last := pipeline.StepIdle
		for st := range states {
			if st.Step == last {
				continue
			}
			last = st.Step
			fmt.Fprintln(w, stepStyle.Render("› "+string(st.Step)))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// stageError prefers the message the pipeline recorded for a failed stage.
func stageError(ctrl *pipeline.Controller, err error) error {
	st := ctrl.State()
	if st.HasError && st.Error != "" {
		return errors.New(errorStyle.Render(st.Error))
	}
	return err
}

func printComponents(w io.Writer, st pipeline.State) {
	if st.Components == nil {
		return
	}
	c := st.Components
	rows := make([][]string, 0, len(c.Hooks)+len(c.Bridges)+len(c.GoldenNuggets)+len(c.WTAs))
	for _, h := range c.Hooks {
		rows = append(rows, []string{h.ID, "hook", h.Title, h.Preview})
	}
	for _, b := range c.Bridges {
		rows = append(rows, []string{b.ID, "bridge", b.Title, b.Preview})
	}
	for _, g := range c.GoldenNuggets {
		rows = append(rows, []string{g.ID, "golden nugget", g.Title, "• " + strings.Join(g.BulletPoints, "\n• ")})
	}
	for _, a := range c.WTAs {
		rows = append(rows, []string{a.ID, "call to action (" + string(a.ActionType) + ")", a.Title, a.Preview})
	}
	fmt.Fprintln(w, heading("Components"))
	fmt.Fprintln(w, renderTable([]string{"ID", "Part", "Title", "Preview"}, rows, nil, 60))

	sources := make([][]string, 0, len(st.Sources))
	for _, s := range st.Sources {
		status := "extracted"
		if !s.IsTextExtracted {
			status = "snippet"
			if s.TextExtractionError != "" {
				status = s.TextExtractionError
			}
		}
		sources = append(sources, []string{s.ID, s.Title, s.Link, status})
	}
	fmt.Fprintln(w, heading("Sources"))
	fmt.Fprintln(w, renderTable([]string{"ID", "Title", "Link", "Text"}, sources, nil, 50))
}

func printTimings(w io.Writer, spans []graph.TraceSpan) {
	rows := make([][]string, 0, len(spans))
	for _, span := range spans {
		if span.Event != graph.TraceEventNodeEnd && span.Event != graph.TraceEventNodeError {
			continue
		}
		rows = append(rows, []string{span.NodeName, span.Duration.Round(time.Millisecond).String()})
	}
	fmt.Fprintln(w, heading("Timings"))
	fmt.Fprintln(w, renderTable([]string{"Stage", "Duration"}, rows, []columnAlignment{alignLeft, alignRight}, 0))
}

func writeOutput(out io.Writer, doc render.Document, format, path string) error {
	if path == "" {
		if format == "" {
			fmt.Fprintln(out, heading(doc.Topic))
			fmt.Fprintln(out, scriptStyle.Render(doc.Script))
			fmt.Fprintln(out, analysisBlock(doc.Analysis))
			return nil
		}
		data, err := renderDocument(doc, format)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	if format == "" {
		format = formatFromPath(path)
	}
	data, err := renderDocument(doc, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

func renderDocument(doc render.Document, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "md", "markdown":
		return []byte(render.Markdown(doc)), nil
	case "html":
		return render.Page(doc)
	case "txt", "text":
		return []byte(render.Plain(doc)), nil
	default:
		return nil, fmt.Errorf("unknown format %q (use md, html or txt)", format)
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "txt"
	default:
		return "md"
	}
}


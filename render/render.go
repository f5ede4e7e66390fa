package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"

	"github.com/smallnest/scriptflow/pipeline"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/store"
)

// Document is a finished script with everything shown next to it.
type Document struct {
	Topic     string
	Script    string
	Selection script.Selection
	Sources   []script.Source
	Analysis  script.Analysis
	VoiceName string
	CreatedAt time.Time
}

// FromRecord builds a document from an archived script.
func FromRecord(r *store.Record) Document {
	return Document{
		Topic:     r.Topic,
		Script:    r.Script,
		Selection: r.Selection,
		Sources:   r.Sources,
		Analysis:  r.Analysis,
		VoiceName: r.VoiceName,
		CreatedAt: r.CreatedAt,
	}
}

// FromState builds a document from a completed pipeline state.
// ok is false unless the state holds a final script.
func FromState(s pipeline.State, voiceName string) (doc Document, ok bool) {
	if !s.IsComplete || s.FinalScript == "" {
		return Document{}, false
	}
	doc = Document{
		Topic:     s.VideoIdea,
		Script:    s.FinalScript,
		Selection: s.SelectedComponents,
		Sources:   s.Sources,
		VoiceName: voiceName,
	}
	if s.Analysis != nil {
		doc.Analysis = *s.Analysis
	} else {
		doc.Analysis = script.Analyze(s.FinalScript)
	}
	return doc, true
}

// Duration formats seconds as m:ss.
func Duration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Markdown renders the document as Markdown. The script text is kept verbatim.
func Markdown(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", heading(doc.Topic))
	if doc.VoiceName != "" {
		fmt.Fprintf(&b, "_Voice: %s_\n\n", doc.VoiceName)
	}
	b.WriteString(strings.TrimSpace(doc.Script))
	b.WriteString("\n\n")

	b.WriteString("## Analysis\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	for _, row := range analysisRows(doc.Analysis) {
		fmt.Fprintf(&b, "| %s | %s |\n", row[0], row[1])
	}
	b.WriteString("\n")

	if parts := selectionRows(doc.Selection); len(parts) > 0 {
		b.WriteString("## Parts\n\n")
		for _, row := range parts {
			fmt.Fprintf(&b, "- **%s:** %s\n", row[0], row[1])
		}
		b.WriteString("\n")
	}

	if len(doc.Sources) > 0 {
		b.WriteString("## Sources used\n\n")
		for i, src := range doc.Sources {
			fmt.Fprintf(&b, "%d. %s", i+1, sourceLink(src))
			if !src.IsTextExtracted && src.Link != "" {
				b.WriteString(" (snippet only)")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// HTML renders the document to a sanitized HTML fragment.
func HTML(doc Document) []byte {
	return MarkdownToHTML(Markdown(doc))
}

// MarkdownToHTML converts Markdown to HTML and strips anything unsafe.
func MarkdownToHTML(md string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})

	return bluemonday.UGCPolicy().SanitizeBytes(markdown.Render(doc, renderer))
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 46rem; margin: 2rem auto; line-height: 1.6; padding: 0 1rem; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.25rem 0.75rem; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Page renders the document as a standalone HTML page.
func Page(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	data := struct {
		Title string
		Body  template.HTML
	}{
		Title: doc.Topic,
		Body:  template.HTML(HTML(doc)), // #nosec G203 -- sanitized by bluemonday
	}
	if err := page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// Plain renders the document as plain text for terminals and clipboards.
func Plain(doc Document) string {
	var b strings.Builder

	title := heading(doc.Topic)
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len([]rune(title))))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(doc.Script))
	b.WriteString("\n\n")

	for _, row := range analysisRows(doc.Analysis) {
		fmt.Fprintf(&b, "%-20s %s\n", row[0]+":", row[1])
	}
	if len(doc.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for i, src := range doc.Sources {
			fmt.Fprintf(&b, "  %d. %s", i+1, src.Title)
			if src.Link != "" {
				fmt.Fprintf(&b, " <%s>", src.Link)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func analysisRows(a script.Analysis) [][2]string {
	return [][2]string{
		{"Words", fmt.Sprintf("%d", a.WordCount)},
		{"Estimated duration", Duration(a.EstimatedDuration)},
		{"Readability", fmt.Sprintf("%d/100", a.ReadabilityScore)},
		{"Hook strength", fmt.Sprintf("%d/100", a.HookStrength)},
	}
}

func selectionRows(sel script.Selection) [][2]string {
	var rows [][2]string
	if sel.Hook != nil {
		rows = append(rows, [2]string{"Hook", sel.Hook.Title})
	}
	if sel.Bridge != nil {
		rows = append(rows, [2]string{"Bridge", sel.Bridge.Title})
	}
	if sel.GoldenNugget != nil {
		rows = append(rows, [2]string{"Golden nugget", sel.GoldenNugget.Title})
	}
	if sel.WTA != nil {
		rows = append(rows, [2]string{"Call to action", fmt.Sprintf("%s (%s)", sel.WTA.Title, sel.WTA.ActionType)})
	}
	return rows
}

var linkText = strings.NewReplacer("[", `\[`, "]", `\]`)

func sourceLink(src script.Source) string {
	title := linkText.Replace(strings.TrimSpace(src.Title))
	if title == "" {
		title = src.Link
	}
	if src.Link == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, src.Link)
}

func heading(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return "Untitled script"
	}
	return s
}

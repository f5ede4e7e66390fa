package pipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/smallnest/scriptflow/log"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/tool"
)

// ExtractionFailed is recorded on a source whose text could not be extracted.
const ExtractionFailed = "Failed to extract content"

// DefaultMaxConcurrency bounds parallel extraction requests.
const DefaultMaxConcurrency = 4

// ContentExtractor annotates sources with their page text.
type ContentExtractor struct {
	extractor tool.Extractor
	limit     int
	logger    log.Logger
}

// NewContentExtractor creates a stage running at most limit extractions at once.
func NewContentExtractor(e tool.Extractor, limit int, logger log.Logger) *ContentExtractor {
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	return &ContentExtractor{
		extractor: e,
		limit:     limit,
		logger:    log.OrDefault(logger),
	}
}

// Extract returns a copy of sources with extraction fields filled in. Sources
// that already carry text are left alone. It waits for every extraction to
// settle, never drops a source and never fails.
func (c *ContentExtractor) Extract(ctx context.Context, sources []script.Source) []script.Source {
	out := append([]script.Source(nil), sources...)

	var g errgroup.Group
	g.SetLimit(c.limit)
	for i := range out {
		if out[i].ExtractedText != "" {
			continue
		}
		g.Go(func() error {
			c.extract(ctx, &out[i])
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *ContentExtractor) extract(ctx context.Context, src *script.Source) {
	if src.Link == "" || c.extractor == nil {
		c.fail(src, "no link")
		return
	}

	res := c.extractor.Extract(ctx, src.Link)
	text := strings.TrimSpace(res.Text)
	if text == "" {
		reason := res.Error
		if reason == "" {
			reason = "empty text"
		}
		c.fail(src, reason)
		return
	}

	src.ExtractedText = text
	src.IsTextExtracted = true
	src.TextExtractionError = ""
	c.logger.Debug("extracted %d characters from %s", len(text), src.Link)
}

func (c *ContentExtractor) fail(src *script.Source, reason string) {
	c.logger.Warn("extraction failed for %q: %s", src.Link, reason)
	src.ExtractedText = src.Snippet
	if src.ExtractedText == "" {
		src.ExtractedText = src.Title
	}
	src.IsTextExtracted = false
	src.TextExtractionError = ExtractionFailed
}

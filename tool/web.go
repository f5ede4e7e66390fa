package tool

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultUserAgent = "Mozilla/5.0 (compatible; scriptflow/1.0; +https://github.com/smallnest/scriptflow)"
	defaultMaxBytes  = 2 << 20
	defaultMaxChars  = 8000
)

// Extraction is the outcome of one content-extraction request.
// Text is empty when extraction failed; Error then says why.
type Extraction struct {
	Text  string
	Error string
}

// Extractor is the content-extraction service: URL in, best-effort article text
// out. It reports failures through Extraction.Error rather than returning errors.
type Extractor interface {
	Extract(ctx context.Context, url string) Extraction
}

// WebExtractor fetches pages over HTTP and extracts readable body text with goquery.
type WebExtractor struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	maxChars  int
	policy    *bluemonday.Policy
}

// WebOption configures a WebExtractor.
type WebOption func(*WebExtractor)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) WebOption {
	return func(e *WebExtractor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) WebOption {
	return func(e *WebExtractor) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithMaxChars truncates extracted text to n characters.
func WithMaxChars(n int) WebOption {
	return func(e *WebExtractor) {
		if n > 0 {
			e.maxChars = n
		}
	}
}

// WithMaxBytes limits how much of the response body is read.
func WithMaxBytes(n int64) WebOption {
	return func(e *WebExtractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// NewWebExtractor creates an extractor with a 15 second timeout by default.
func NewWebExtractor(opts ...WebOption) *WebExtractor {
	e := &WebExtractor{
		client:    &http.Client{Timeout: 15 * time.Second},
		userAgent: defaultUserAgent,
		maxBytes:  defaultMaxBytes,
		maxChars:  defaultMaxChars,
		policy:    bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Extractor = (*WebExtractor)(nil)

// Extract implements Extractor.
func (e *WebExtractor) Extract(ctx context.Context, url string) Extraction {
	text, err := e.Fetch(ctx, url)
	if err != nil {
		return Extraction{Error: err.Error()}
	}
	return Extraction{Text: text}
}

// noise lists elements that never hold article text.
const noise = "script, style, noscript, nav, header, footer, aside, form, iframe, svg"

// Fetch downloads url and returns its readable text.
func (e *WebExtractor) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, e.maxBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(noise).Remove()

	body := doc.Find("article").First()
	if body.Length() == 0 || strings.TrimSpace(body.Text()) == "" {
		body = doc.Find("main").First()
	}
	if body.Length() == 0 || strings.TrimSpace(body.Text()) == "" {
		body = doc.Find("body")
	}

	var blocks []string
	body.Find("h1, h2, h3, h4, p, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if t := normalizeSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	text := strings.Join(blocks, "\n")
	if text == "" {
		text = normalizeSpace(body.Text())
	}
	text = normalizeSpace(html.UnescapeString(e.policy.Sanitize(text)))
	if text == "" {
		return "", fmt.Errorf("no text content found")
	}
	return truncate(text, e.maxChars), nil
}

var spaces = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLines = regexp.MustCompile(`\n\s*\n+`)

func normalizeSpace(s string) string {
	s = spaces.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultQianfanModel is used by the qianfan provider when no model is configured.
	DefaultQianfanModel = "ernie-4.5-turbo-32k"

	defaultQianfanBaseURL = "https://qianfan.baidubce.com"
	qianfanChatEndpoint   = "/v2/chat/completions"
)

// QianfanGenerator calls the Baidu Qianfan (ERNIE) chat completions API.
type QianfanGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

var _ Generator = (*QianfanGenerator)(nil)

type qianfanMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type qianfanRequest struct {
	Model       string           `json:"model"`
	Messages    []qianfanMessage `json:"messages"`
	Temperature float64          `json:"temperature,omitempty"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
}

type qianfanResponse struct {
	Result  string `json:"result,omitempty"`
	Choices []struct {
		Message qianfanMessage `json:"message"`
	} `json:"choices"`
	ErrorCode int    `json:"error_code,omitempty"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

// NewQianfanGenerator creates a generator authenticating with a Qianfan API key.
func NewQianfanGenerator(cfg Config) (*QianfanGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("qianfan api key not set")
	}
	g := &QianfanGenerator{
		apiKey:     cfg.APIKey,
		baseURL:    defaultQianfanBaseURL,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		g.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if g.model == "" {
		g.model = DefaultQianfanModel
	}
	if g.httpClient == nil {
		g.httpClient = http.DefaultClient
	}
	return g, nil
}

// Generate sends prompt as a single user message. Qianfan has no JSON mode,
// so JSON requests are answered as text and left to the caller to parse.
func (g *QianfanGenerator) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := Apply(opts...)

	body, err := json.Marshal(qianfanRequest{
		Model:       g.model,
		Messages:    []qianfanMessage{{Role: "user", Content: prompt}},
		Temperature: o.Temperature,
		MaxTokens:   o.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+qianfanChatEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(data))
	}

	var out qianfanResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if out.ErrorCode != 0 {
		return "", fmt.Errorf("qianfan error %d: %s", out.ErrorCode, out.ErrorMsg)
	}

	text := out.Result
	if len(out.Choices) > 0 {
		text = out.Choices[0].Message.Content
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

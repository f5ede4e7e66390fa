package textgen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"```json\n[{\"a\":1}]\n```": `[{"a":1}]`,
		"```\n{}\n```":              "{}",
		"  [1, 2]  ":                "[1, 2]",
		"```{\"x\":true}```":        `{"x":true}`,
		"plain text":                "plain text",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripCodeFence(in), in)
	}
}

func TestApply(t *testing.T) {
	o := Apply()
	assert.Equal(t, FormatText, o.ResponseFormat)

	o = Apply(WithTemperature(0.7), WithMaxOutputTokens(512), WithJSON())
	assert.Equal(t, 0.7, o.Temperature)
	assert.Equal(t, 512, o.MaxOutputTokens)
	assert.Equal(t, FormatJSON, o.ResponseFormat)
}

// mockLLM is a mock implementation of llms.Model for testing
type mockLLM struct {
	response string
	err      error
	prompts  []string
	options  llms.CallOptions
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.prompts = append(m.prompts, messages[0].Parts[0].(llms.TextContent).Text)
	for _, opt := range options {
		opt(&m.options)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangchainGenerator(t *testing.T) {
	model := &mockLLM{response: `{"hooks":[]}`}
	g := NewLangchainGenerator(model)

	out, err := g.Generate(context.Background(), "write hooks", WithJSON(), WithTemperature(0.9), WithMaxOutputTokens(100))
	require.NoError(t, err)
	assert.Equal(t, `{"hooks":[]}`, out)
	assert.Equal(t, []string{"write hooks"}, model.prompts)
	assert.True(t, model.options.JSONMode)
	assert.Equal(t, 0.9, model.options.Temperature)
	assert.Equal(t, 100, model.options.MaxTokens)
}

func TestLangchainGenerator_Errors(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := NewLangchainGenerator(&mockLLM{err: boom}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)

	_, err = NewLangchainGenerator(&mockLLM{response: "   "}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func newChatServer(t *testing.T, status int, content string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestOpenAIGenerator(t *testing.T) {
	var seen map[string]any
	srv := newChatServer(t, http.StatusOK, "Here is your script.", &seen)
	defer srv.Close()

	g, err := NewOpenAIGenerator(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "assemble", WithJSON(), WithMaxOutputTokens(300))
	require.NoError(t, err)
	assert.Equal(t, "Here is your script.", out)

	assert.Equal(t, DefaultModel, seen["model"])
	assert.EqualValues(t, 300, seen["max_tokens"])
	format, ok := seen["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIGenerator_NonSuccessStatus(t *testing.T) {
	srv := newChatServer(t, http.StatusInternalServerError, "", nil)
	defer srv.Close()

	g, err := NewOpenAIGenerator(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "assemble")
	assert.Error(t, err)
}

func TestOpenAIGenerator_EmptyContent(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "", nil)
	defer srv.Close()

	g, err := NewOpenAIGenerator(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "assemble")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNew(t *testing.T) {
	_, err := New(Config{Provider: "nope"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = New(Config{Provider: "openai"})
	assert.Error(t, err)

	g, err := New(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	assert.Contains(t, Providers(), "langchain")
	assert.Contains(t, Providers(), "openai")
	assert.Contains(t, Providers(), "qianfan")
}

func TestRegister(t *testing.T) {
	Register("static", func(cfg Config) (Generator, error) {
		return GeneratorFunc(func(ctx context.Context, prompt string, opts ...Option) (string, error) {
			return "static:" + prompt, nil
		}), nil
	})
	defer delete(providers, "static")

	g, err := New(Config{Provider: "static"})
	require.NoError(t, err)
	out, err := g.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "static:hi", out)
}

func TestQianfanGenerator(t *testing.T) {
	var seen qianfanRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"as-1","choices":[{"index":0,"message":{"role":"assistant","content":"Hook first."}}]}`))
	}))
	defer srv.Close()

	g, err := New(Config{Provider: "qianfan", APIKey: "test-key", BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "write a hook", WithTemperature(0.8))
	require.NoError(t, err)
	assert.Equal(t, "Hook first.", out)
	assert.Equal(t, DefaultQianfanModel, seen.Model)
	assert.Equal(t, 0.8, seen.Temperature)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "write a hook", seen.Messages[0].Content)
}

func TestQianfanGenerator_Errors(t *testing.T) {
	_, err := NewQianfanGenerator(Config{})
	assert.Error(t, err)

	tests := map[string]struct {
		status int
		body   string
		empty  bool
	}{
		"status":      {status: http.StatusUnauthorized, body: `{"error_msg":"bad key"}`},
		"api error":   {status: http.StatusOK, body: `{"error_code":336003,"error_msg":"invalid model"}`},
		"bad json":    {status: http.StatusOK, body: `not json`},
		"empty reply": {status: http.StatusOK, body: `{"result":"  "}`, empty: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, err := NewQianfanGenerator(Config{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
			require.NoError(t, err)
			_, err = g.Generate(context.Background(), "p")
			require.Error(t, err)
			if tt.empty {
				assert.ErrorIs(t, err, ErrEmptyResponse)
			}
		})
	}
}

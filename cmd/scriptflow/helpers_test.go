package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smallnest/scriptflow/config"
	"github.com/smallnest/scriptflow/render"
	"github.com/smallnest/scriptflow/script"
	"github.com/smallnest/scriptflow/textgen"
	"github.com/smallnest/scriptflow/tool"
)

const researchJSON = `[{"title": "Morning routines", "link": "https://example.com/routines", "snippet": "Small routines beat big plans."}]`

const componentsJSON = `{
	"hooks": ["Why do you wake up tired?", "Stop hitting snooze.", "The secret is the night before.", "Most people skip this."],
	"bridges": ["Here's what works.", "Let me show you.", "It starts tonight.", "Science agrees."],
	"golden_nuggets": [{"title": "Habits", "bullet_points": ["Drink water", "Get sunlight", "Move for 10 minutes"]}],
	"wtas": ["Comment your favorite habit", "Follow for more", "Share this with a friend", "Try one tomorrow"]
}`

const finalScript = "Stop hitting snooze. Here's what works. Drink water, get sunlight and move. Try one tomorrow."

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, url string) tool.Extraction {
	return tool.Extraction{Text: "Extracted text for " + url}
}

func fakeGenerator(componentsErr error) textgen.Generator {
	return textgen.GeneratorFunc(func(ctx context.Context, prompt string, opts ...textgen.Option) (string, error) {
		switch {
		case strings.Contains(prompt, "research assistant"):
			return researchJSON, nil
		case textgen.Apply(opts...).ResponseFormat == textgen.FormatJSON:
			return componentsJSON, componentsErr
		default:
			return finalScript, nil
		}
	})
}

var errOverloaded = errors.New("model overloaded")

// isolate runs the test in an empty directory with no scriptflow variables set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "BRAVE_API_KEY", "SCRIPTFLOW_LLM_PROVIDER", "SCRIPTFLOW_LLM_MODEL",
		"SCRIPTFLOW_LLM_BASE_URL", "SCRIPTFLOW_LLM_API_KEY", "SCRIPTFLOW_VOICE_PROFILE",
		"SCRIPTFLOW_STORE_BACKEND", "SCRIPTFLOW_STORE_PATH", "SCRIPTFLOW_STORE_DSN",
		"SCRIPTFLOW_REDIS_ADDR", "SCRIPTFLOW_SERVER_BIND", "SCRIPTFLOW_LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// writeConfig writes a config archiving into a file store under dir.
func writeConfig(t *testing.T, dir string) (configPath, storeDir string) {
	t.Helper()
	storeDir = filepath.Join(dir, "archive")
	configPath = filepath.Join(dir, "scriptflow.toml")
	data := "[llm]\napi_key = \"sk-test-secret\"\n\n[store]\nbackend = \"file\"\npath = \"" + filepath.ToSlash(storeDir) + "\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(data), 0o644))
	return configPath, storeDir
}

func newTestContext(componentsErr error) *commandContext {
	ctx := newCommandContext()
	ctx.logOutput = io.Discard
	ctx.newGenerator = func(*config.Config) (textgen.Generator, error) {
		return fakeGenerator(componentsErr), nil
	}
	ctx.newExtractor = func(*config.Config) tool.Extractor {
		return fakeExtractor{}
	}
	return ctx
}

func runCLI(t *testing.T, ctx *commandContext, args ...string) (string, string, error) {
	t.Helper()
	root := buildRootCommand(ctx)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func testDoc() render.Document {
	return render.Document{Topic: "t", Script: finalScript, Analysis: script.Analyze(finalScript)}
}

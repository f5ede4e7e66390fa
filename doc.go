// Scriptflow turns a one-line video idea into a finished short-form video script.
//
// A session researches the idea, extracts the text of the sources it found,
// asks a language model for four kinds of script parts (hooks, bridges, golden
// nuggets and calls to action), lets the writer pick one of each and then
// writes, scores and archives the final script.
//
// # Packages
//
//   - pipeline: the session state machine and its stages
//   - script: components, selection, voice profiles and script analysis
//   - graph: the typed stage graph the pipeline runs on
//   - textgen: text generation providers (openai, langchain, qianfan)
//   - tool: web search and page text extraction
//   - store: archived scripts, with memory, file, sqlite, redis and postgres backends
//   - render: Markdown, HTML and plain text export
//   - api: the HTTP, SSE and websocket server
//   - config: TOML, .env and environment configuration
//   - log: leveled logging
//
// # Quick Start
//
//	scriptflow config init
//	export OPENAI_API_KEY=...
//	scriptflow generate "5 morning habits that changed my life"
//	scriptflow serve --bind :8080
package scriptflow

// Package textgen is the boundary to the text-generation service.
//
// A Generator takes a prompt and returns text. Requests carry a temperature, an
// output token cap and a response format; FormatJSON asks the provider for a
// single JSON object and is used by the component generator, FormatText by the
// source gatherer and the final script assembler.
//
// Three providers are registered:
//
//   - "langchain": any langchaingo llms.Model (OpenAI by default), wrapped by
//     LangchainGenerator.
//   - "openai": a direct go-openai chat completion client.
//   - "qianfan": the Baidu Qianfan (ERNIE) chat completions API.
//
// Tests substitute a GeneratorFunc.
package textgen

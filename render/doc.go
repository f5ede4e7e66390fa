// Package render turns a finished script into Markdown, sanitized HTML or plain
// text, together with its analysis and the sources it was written from.
package render

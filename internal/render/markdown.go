// Package render turns chat text into HTML for the transcript.
package render

import (
	"bytes"
	"html"
	"html/template"
	"log/slog"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders CommonMark plus tables and strikethrough. Raw HTML in the source is
// dropped, since neither the user nor the model gets to inject markup.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
)

// Markdown renders src to HTML. On failure the text is shown escaped instead.
func Markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		slog.Warn("Failed to render markdown, falling back to plain text", "error", err)
		return template.HTML("<p>" + html.EscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}

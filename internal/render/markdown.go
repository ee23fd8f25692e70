package render

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
)

// Markdown converts assistant markdown into HTML. Raw HTML in the source is
// omitted by goldmark's default renderer.
func Markdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HTML is Markdown with a fallback to an escaped paragraph on conversion errors.
func HTML(content string) string {
	out, err := Markdown(content)
	if err != nil {
		return "<p>" + html.EscapeString(content) + "</p>"
	}
	return out
}

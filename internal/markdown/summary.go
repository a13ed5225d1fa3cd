// Package markdown converts report prose to HTML for the page templates.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// md is safe for concurrent use; goldmark parsers and renderers hold no per-call state.
var md = goldmark.New()

// FormatSummary renders prose whose paragraphs are separated by blank lines.
// Single line breaks are soft wraps and render as plain whitespace. Raw HTML in
// the text is not passed through.
func FormatSummary(text string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("convert summary: %w", err)
	}
	return buf.String(), nil
}

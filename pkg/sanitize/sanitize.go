// Package sanitize cleans organizer-supplied text before it is stored or rendered.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Text strips all markup and returns plain text with entities decoded
// and runs of whitespace collapsed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(strict.Sanitize(s))), " ")
}

// HTML keeps safe formatting (paragraphs, emphasis, links) and removes
// scripts, event handlers and javascript: URLs.
func HTML(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// TrimWords returns the first n words of the plain-text form of s,
// followed by an ellipsis when anything was cut.
func TrimWords(s string, n int) string {
	words := strings.Fields(Text(s))
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}

// Package textutil provides text normalization helpers for extracted
// document content.
package textutil

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	controlRe    = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F]")
)

// Sanitize normalizes raw extracted text: runs of whitespace (including
// newlines) collapse to a single space, non-printable control characters
// are stripped, and the result is trimmed. Empty input yields empty output.
func Sanitize(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = controlRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

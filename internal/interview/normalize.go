package interview

import (
	"regexp"
	"strings"
)

var multiNewlineRe = regexp.MustCompile(`\n{3,}`)

// Normalize strips bold markers, collapses runs of three or more line breaks
// into exactly two, and trims surrounding whitespace. A nil input passes
// through unchanged. Normalize is idempotent.
func Normalize(text *string) *string {
	if text == nil {
		return nil
	}

	cleaned := strings.ReplaceAll(*text, "**", "")
	cleaned = multiNewlineRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	return &cleaned
}

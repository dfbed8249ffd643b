package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?()\-]`)

// Clean normalizes text for embedding: lowercase, strip characters other than word characters
// and .,!?()- punctuation, drop single-character tokens, collapse whitespace.
// The original text is kept separately for display.
func Clean(text string) string {
	text = strings.ToLower(text)
	text = disallowedChars.ReplaceAllString(text, " ")
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

package indexer

import (
	"strings"
	"unicode"
)

// Preprocess trims text and collapses runs of whitespace into single spaces.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// NormalizeForHash lowercases and collapses whitespace, so byte-identical content reached
// through different URLs (or differing only in spacing and case) hashes the same.
func NormalizeForHash(text string) string {
	return strings.ToLower(Preprocess(text))
}

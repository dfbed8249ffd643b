package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Structure describes the shape of extracted text. It feeds chunk metadata and diagnostics only.
type Structure struct {
	HasHeadings bool `json:"hasHeadings"`
	HasNumbers  bool `json:"hasNumbers"`
	HasCode     bool `json:"hasCode"`
	LineCount   int  `json:"lineCount"`
	WordCount   int  `json:"wordCount"`
}

var (
	markdownHeading = regexp.MustCompile(`(?m)^#+\s`)
	codeMarker      = regexp.MustCompile("```|`[^`\n]+`")
)

// Analyze computes structural flags and counts for text.
func Analyze(text string) Structure {
	if text == "" {
		return Structure{}
	}
	s := Structure{
		HasNumbers: strings.IndexFunc(text, unicode.IsDigit) >= 0,
		HasCode:    codeMarker.MatchString(text),
		WordCount:  len(strings.Fields(text)),
	}
	lines := strings.Split(text, "\n")
	s.LineCount = len(lines)
	s.HasHeadings = markdownHeading.MatchString(text)
	if !s.HasHeadings {
		for _, line := range lines {
			if isAllCapsLine(line) {
				s.HasHeadings = true
				break
			}
		}
	}
	return s
}

// isAllCapsLine reports whether line has at least three letters and no lowercase ones.
func isAllCapsLine(line string) bool {
	letters := 0
	for _, r := range line {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 3
}

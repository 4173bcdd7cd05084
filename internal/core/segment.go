package core

import (
	"regexp"
	"strings"
)

// CountWords counts whitespace-separated tokens.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// blankLine matches a paragraph break: a newline, optional horizontal
// whitespace, and another newline.
var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// leakedPrefixes mark segments that are echoed prompt scaffolding rather than prose.
var leakedPrefixes = []string{"System:", "Human:", "Assistant:", "You are", "Expert"}

// SplitSegments splits chapter text into non-empty, trimmed paragraphs.
func SplitSegments(text string) []string {
	var out []string
	for _, part := range blankLine.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsLeakedMarker reports whether a segment starts with a role prefix or
// instructional scaffolding.
func IsLeakedMarker(segment string) bool {
	s := strings.TrimSpace(segment)
	for _, p := range leakedPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ExpandableSegments returns the segments eligible for expansion in document order.
func ExpandableSegments(text string) []string {
	var out []string
	for _, s := range SplitSegments(text) {
		if !IsLeakedMarker(s) {
			out = append(out, s)
		}
	}
	return out
}

// SelectShortest picks the shortest segment by character length.
// Ties go to the earliest segment in document order.
func SelectShortest(segments []string) (string, bool) {
	if len(segments) == 0 {
		return "", false
	}
	best := segments[0]
	bestLen := len([]rune(best))
	for _, s := range segments[1:] {
		if n := len([]rune(s)); n < bestLen {
			best, bestLen = s, n
		}
	}
	return best, true
}

package core

import (
	"strings"
	"unicode"
)

// maxNormalizedLen bounds normalized keys so near-identical long titles
// still collide.
const maxNormalizedLen = 80

// NormalizeName produces the canonical dedup key for a concept name or
// signal title: lowercased, everything but letters and digits stripped,
// truncated.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if len(s) > maxNormalizedLen {
		s = s[:maxNormalizedLen]
	}
	return s
}

// TermSet builds a lowercase word set from a list of phrases, splitting on
// whitespace. Used for keyword-overlap scoring.
func TermSet(phrases ...[]string) map[string]bool {
	terms := make(map[string]bool)
	for _, group := range phrases {
		for _, phrase := range group {
			for _, word := range strings.Fields(strings.ToLower(phrase)) {
				word = strings.Trim(word, ".,;:!?()[]\"'")
				if len(word) > 2 {
					terms[word] = true
				}
			}
		}
	}
	return terms
}

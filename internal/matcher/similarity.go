package matcher

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

var equipmentPrefixes = []string{"barbell", "dumbbell", "cable", "machine", "smith"}

var (
	leadingEquipment  = regexp.MustCompile(`^(barbell|dumbbell|cable|machine|smith|bodyweight)\s+`)
	trailingEquipment = regexp.MustCompile(`\s+(barbell|dumbbell|cable|machine|smith)$`)
	dbAbbreviation    = regexp.MustCompile(`\bdb\b`)
	bbAbbreviation    = regexp.MustCompile(`\bbb\b`)
	whitespace        = regexp.MustCompile(`\s+`)
)

// Similarity scores two names between 0 and 1. Equal names score 1, a name
// contained in the other scores 0.8, anything else is scored by edit
// distance relative to the longer name.
func Similarity(a, b string) float64 {
	s1 := strings.ToLower(strings.TrimSpace(a))
	s2 := strings.ToLower(strings.TrimSpace(b))

	if s1 == s2 {
		return 1.0
	}
	if strings.Contains(s1, s2) || strings.Contains(s2, s1) {
		return 0.8
	}

	maxLen := max(utf8.RuneCountInString(s1), utf8.RuneCountInString(s2))
	distance := levenshtein.ComputeDistance(s1, s2)
	return 1 - float64(distance)/float64(maxLen)
}

// NormalizeName lowercases a name, drops a leading or trailing equipment
// word and expands the db/bb abbreviations.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = leadingEquipment.ReplaceAllString(n, "")
	n = trailingEquipment.ReplaceAllString(n, "")
	n = dbAbbreviation.ReplaceAllString(n, "dumbbell")
	n = bbAbbreviation.ReplaceAllString(n, "barbell")
	n = whitespace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// Variations lists the names to try for a lookup, starting with the name
// itself.
func Variations(name string) []string {
	variations := []string{name}
	lower := strings.ToLower(name)
	normalized := NormalizeName(name)
	if normalized != lower {
		variations = append(variations, normalized)
	}
	for _, prefix := range equipmentPrefixes {
		if !strings.Contains(lower, prefix) {
			variations = append(variations, prefix+" "+normalized)
		}
	}
	return variations
}

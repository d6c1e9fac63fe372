package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var punctuationRegex = regexp.MustCompile(`[.'\-]`)

// NormalizeName lowercases a name and drops whitespace and common punctuation,
// "U.A.E." and "uae" normalize to the same value.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	name = punctuationRegex.ReplaceAllString(name, "")
	return name
}

// BestMatch returns the index of the candidate most similar to name by
// Jaro-Winkler distance over normalized names, -1 when there are no candidates.
func BestMatch(name string, candidates []string) (int, float64) {
	name = NormalizeName(name)

	best := -1
	bestScore := -1.0
	for i, c := range candidates {
		c = NormalizeName(c)
		if c == name {
			return i, 1
		}
		score := matchr.JaroWinkler(name, c, false)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}

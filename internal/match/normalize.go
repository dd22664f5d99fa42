// Package match implements the import reconciliation matching engine:
// pure, side-effect-free scorers that decide which existing category,
// payee, and recurring schedule an imported bank row corresponds to.
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Normalize canonicalizes free text for comparison: lower-case, collapse
// runs of whitespace to a single space, trim the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Similarity returns an edit-distance based similarity score in [0,1]
// between the lower-cased forms of a and b. Both empty yields 1.0; exactly
// one empty yields 0.0. Symmetric for all inputs.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	la := len([]rune(a))
	lb := len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

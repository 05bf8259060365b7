package matcher

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NormalizeName prepares a client name for comparison: upper-cased with
// whitespace runs collapsed to single spaces.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Similarity scores how close two client names are on [0,100] using
// Levenshtein edit distance over the normalized full name strings:
// 100*(1 - distance/maxLen). Identical names score 100; names with
// nothing in common score 0. Exactly one empty name scores 0, which is
// how unresolved clients surface as mismatches downstream.
func Similarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)

	if na == "" && nb == "" {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	ra, rb := []rune(na), []rune(nb)
	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	score := 100 * (1 - float64(distance)/float64(maxLen))
	if score < 0 {
		return 0
	}
	return score
}

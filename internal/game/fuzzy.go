package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks (diacritics) and
// recomposes, so "São Paulo" and "Sao Paulo" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics and removes every non-alphanumeric
// rune. Both duplicate detection and scoring operate on this form; the two
// must never diverge.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Levenshtein computes the classic edit distance (insert, delete,
// substitute, all unit cost) between two strings.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// FuzzyMatch reports whether two raw answers are equivalent for duplicate
// detection and scoring. The tolerance scales with the longer normalized
// operand: length <= 2 requires exact equality, 3-4 allows one edit, longer
// allows two.
func FuzzyMatch(a, b string) bool {
	return fuzzyEqualNormalized(Normalize(a), Normalize(b))
}

func fuzzyEqualNormalized(na, nb string) bool {
	if na == nb {
		return true
	}
	longer := len([]rune(na))
	if l := len([]rune(nb)); l > longer {
		longer = l
	}
	switch {
	case longer <= 2:
		return false
	case longer <= 4:
		return Levenshtein(na, nb) <= 1
	default:
		return Levenshtein(na, nb) <= 2
	}
}

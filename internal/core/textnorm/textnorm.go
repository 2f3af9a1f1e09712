// Package textnorm holds the Unicode folding shared by candidate keys and
// ingredient matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("Crème Brûlée" -> "creme brulee").
func Fold(s string) string {
	// transform chains keep state and cannot be shared between goroutines.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// AlnumWords folds s and keeps only letters and digits, separated by single
// spaces.
func AlnumWords(s string) string {
	folded := Fold(s)
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	return CollapseSpaces(mapped)
}

// CollapseSpaces trims s and squeezes every whitespace run to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

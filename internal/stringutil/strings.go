// Package stringutil provides common string manipulation utilities.
package stringutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes s and drops the combining marks, so "ç" becomes "c".
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases s and removes diacritics, for accent-insensitive
// matching of user input.
//
// Example:
//
//	Fold("Histórico") returns "historico"
func Fold(s string) string {
	return strings.ToLower(stripMarks(s))
}

// ToASCII removes diacritics and replaces any remaining non-ASCII or
// non-printable rune with repl. Emoji are dropped entirely when repl is 0.
func ToASCII(s string, repl rune) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range stripMarks(s) {
		switch {
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case repl != 0:
			b.WriteRune(repl)
		}
	}
	return b.String()
}

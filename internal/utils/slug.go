package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug lowercases s, strips accents ("Relógio" -> "relogio"), collapses every
// run of other characters into a single dash and trims dashes at both ends.
// fallback is returned when nothing is left.
func Slug(s, fallback string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		plain = strings.ToLower(s)
	}
	out := strings.Trim(nonAlnum.ReplaceAllString(plain, "-"), "-")
	if out == "" {
		return fallback
	}
	return out
}

package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the NFC form of a user-entered list name with
// surrounding whitespace removed. This is the form that is stored and shown.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// CanonicalName folds case and strips diacritics so that "Café", "cafe" and
// "CAFE" compare equal. It is the uniqueness key for reading list names.
func CanonicalName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, NormalizeName(name))
	if err != nil {
		stripped = NormalizeName(name)
	}
	return cases.Fold().String(stripped)
}

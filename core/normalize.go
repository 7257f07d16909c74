package core

import (
	"strings"
	"unicode"
)

// Legal suffixes stripped during name normalization, longest first so that
// "corporation" is removed before "corp" gets a chance to match its prefix.
var legalSuffixes = []string{
	" corporation",
	" incorporated",
	" limited",
	" corp",
	" inc",
	" ltd",
	" co",
}

// NormalizeName lowercases an entity name, strips punctuation and trailing
// legal suffixes, and collapses whitespace. Two mentions of the same company
// normalize to comparable strings: "Apple Inc." and "apple inc" both become
// "apple".
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = s[:len(s)-len(suffix)]
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// Package match resolves free-text artist/title pairs to catalog entries.
package match

import (
	"strings"
	"unicode"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize folds s into a comparison form: ASCII transliteration, lower case,
// and nothing but letters, digits and whitespace. Normalize(Normalize(s)) ==
// Normalize(s) for every s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = unidecode.Unidecode(s)
	// Casers keep state between calls and are not safe to share.
	s = cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

package match

import (
	"regexp"
	"strings"
)

var (
	andWord   = regexp.MustCompile(`(?i)(^|\s)and(\s|$)`)
	ampersand = regexp.MustCompile(`\s*&\s*`)
)

// ExpandArtist returns the spellings of an artist name worth trying. The
// original always comes first. An "and" standing between spaces (or at either
// end) yields an "&" variant; otherwise an "&" yields an "and" variant.
// Hyphenated forms like "Rock-and-Roll" are left alone.
func ExpandArtist(name string) []string {
	variants := []string{name}

	if andWord.MatchString(name) {
		return append(variants, andWord.ReplaceAllString(name, "${1}&${2}"))
	}
	if strings.Contains(name, "&") {
		v := strings.TrimSpace(ampersand.ReplaceAllString(name, " and "))
		return append(variants, v)
	}
	return variants
}

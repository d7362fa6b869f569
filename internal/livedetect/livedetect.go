// Package livedetect classifies recordings as live from their title and album.
package livedetect

import "regexp"

var (
	datePattern  = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}`)
	liveKeywords = regexp.MustCompile(`(?i)\b(?:live|concert|sbd|bootleg)\b`)
)

// IsLive reports whether title or album carries a date stamp (YYYY-MM-DD or
// YYYY/MM/DD) or a whole-word live keyword. Studio albums named after a date
// are classified as live.
func IsLive(title, album string) bool {
	for _, s := range [2]string{title, album} {
		if s == "" {
			continue
		}
		if datePattern.MatchString(s) || liveKeywords.MatchString(s) {
			return true
		}
	}
	return false
}

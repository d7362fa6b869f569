package match

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio scores the similarity of a and b from 0 to 100 using the indel
// distance: 100 * (1 - indel / (len(a)+len(b))). Two empty strings score 100.
func Ratio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	// indel = total - 2*LCS
	return 200 * float64(edlib.LCS(a, b)) / float64(total)
}

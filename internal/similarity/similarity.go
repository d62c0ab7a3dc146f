// Package similarity implements bigram-overlap title similarity.
package similarity

import "github.com/matsen/refdeck/internal/textutil"

// Bigrams returns the set of contiguous 2-character substrings of the
// normalized, whitespace-stripped title. Titles shorter than 2 characters
// after normalization produce an empty set.
func Bigrams(title string) map[string]struct{} {
	s := textutil.Squash(title)
	grams := make(map[string]struct{})
	for i := 0; i+2 <= len(s); i++ {
		grams[s[i:i+2]] = struct{}{}
	}
	return grams
}

// Dice returns the Dice coefficient 2|A∩B|/(|A|+|B|) between the bigram
// sets of two titles. Returns 0 when either title is absent or produces
// an empty bigram set.
func Dice(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	ga := Bigrams(a)
	gb := Bigrams(b)
	if len(ga) == 0 || len(gb) == 0 {
		return 0
	}

	common := 0
	for g := range ga {
		if _, ok := gb[g]; ok {
			common++
		}
	}

	return 2 * float64(common) / float64(len(ga)+len(gb))
}

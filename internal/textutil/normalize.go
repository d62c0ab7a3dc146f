// Package textutil provides the text normalization used by fingerprinting
// and title similarity.
package textutil

import "strings"

// Normalize lowercases the input, replaces every character outside [a-z0-9]
// and whitespace with a space, collapses whitespace runs, and trims.
// An empty input normalizes to "".
func Normalize(s string) string {
	lowered := strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Squash normalizes the input and removes all remaining whitespace.
// Used to build bigram sets over titles.
func Squash(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

package logic

import (
	"strings"
	"unicode"
)

// CanonicalName folds a free-form team name into its canonical form:
// lower-case, punctuation stripped, runs of whitespace collapsed to a
// single space. The fold is idempotent.
func CanonicalName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
		// remaining punctuation is dropped outright
	}
	return strings.TrimSpace(b.String())
}

package extract

import (
	"strings"
	"unicode"
)

// MaxContentRunes caps the cleaned text of a single document.
const MaxContentRunes = 100_000

// Clean collapses whitespace runs to a single space, drops control
// characters, trims both ends and truncates to MaxContentRunes.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(min(len(s), MaxContentRunes))

	n := 0
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = n > 0
			continue
		}
		if unicode.IsControl(r) || r == unicode.ReplacementChar {
			continue
		}
		if space {
			if n+1 >= MaxContentRunes {
				break
			}
			b.WriteByte(' ')
			n++
			space = false
		}
		b.WriteRune(r)
		n++
		if n >= MaxContentRunes {
			break
		}
	}
	return b.String()
}

package recurring

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// CounterpartyKey normalizes a counterparty name for grouping: lowercase NFC,
// only a-z, 0-9, German umlauts, ß and whitespace kept, whitespace collapsed.
func CounterpartyKey(name string) string {
	lower := norm.NFC.String(strings.ToLower(name))

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'ä', r == 'ö', r == 'ü', r == 'ß':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

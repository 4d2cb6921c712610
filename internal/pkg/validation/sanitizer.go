package validation

import (
	"strings"
	"unicode"
)

// TeamName collapses whitespace and drops control and zero-width characters
// that feeds sometimes embed in names.
func TeamName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\u200b' || r == '\u200c' || r == '\u200d' || r == '\ufeff':
			return -1
		case unicode.IsControl(r):
			return ' '
		default:
			return r
		}
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

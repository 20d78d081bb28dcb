package segment

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on runs of characters that are
// neither letters nor digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

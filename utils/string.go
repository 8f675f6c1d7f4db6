package utils

import (
	"strings"
	"unicode/utf8"
)

// TrimmedLength returns the number of characters (runes) left in s after
// trimming leading and trailing white space.
//
// Parameters:
//   - s: The string to measure
//
// Returns:
//   - The rune count of strings.TrimSpace(s)
func TrimmedLength(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// NormalizeWord trims s and upper-cases it. This is the canonical form used to
// compare words against boards, dictionaries and previously played words.
func NormalizeWord(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

package utils

import "strings"

// Truncate is a simple string truncate that counts runes and marks the cut
// with an ellipsis.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// Clip collapses whitespace runs to single spaces and keeps at most maxLen
// runes.
func Clip(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > maxLen {
		s = strings.TrimSpace(string(r[:maxLen]))
	}
	return s
}

package util

import "strings"

// TruncateString truncates a string to maxRunes characters (rune-based, not byte-based)
// If truncated, appends "..." to the result
func TruncateString(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeKey collapses internal whitespace of a normalized string so that
// "Cute  Cats" and "cute cats" share a lookup key.
func NormalizeKey(s string) string {
	return strings.Join(strings.Fields(Normalize(s)), " ")
}

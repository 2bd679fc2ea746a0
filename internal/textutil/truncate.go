// Package textutil holds small string helpers shared across packages.
package textutil

import "unicode/utf8"

// Prefix returns the longest prefix of s that is at most n bytes long and
// does not split a UTF-8 sequence.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Truncate shortens s to at most n bytes on a rune boundary and appends
// suffix when anything was cut.
func Truncate(s string, n int, suffix string) string {
	if len(s) <= n {
		return s
	}
	return Prefix(s, n) + suffix
}

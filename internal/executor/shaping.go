package executor

import (
	"regexp"
	"strings"
)

var (
	strictURL  = regexp.MustCompile("https?://[^\\s<>\"'`]+")
	bareDomain = regexp.MustCompile("(?i)\\b(?:www\\.)?[a-z0-9](?:[a-z0-9-]*[a-z0-9])?(?:\\.[a-z0-9](?:[a-z0-9-]*[a-z0-9])?)*\\.[a-z]{2,}(?:/[^\\s<>\"'`]*)?")
)

const trailingPunctuation = ".,;:!?)]}'\""

// ExtractURL returns the first URL in text. Explicit http(s) URLs win; a bare
// domain such as example.com/page is returned with an https:// prefix.
func ExtractURL(text string) (string, bool) {
	if m := strictURL.FindString(text); m != "" {
		if u := strings.TrimRight(m, trailingPunctuation); hasHost(u) {
			return u, true
		}
	}
	if m := bareDomain.FindString(text); m != "" {
		u := strings.TrimRight(m, trailingPunctuation)
		if u != "" {
			return "https://" + u, true
		}
	}
	return "", false
}

func hasHost(u string) bool {
	i := strings.Index(u, "://")
	return i >= 0 && len(u) > i+3
}

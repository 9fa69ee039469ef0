// Package sanitize strips markup from free-text fields before persistence,
// as defense-in-depth against stored XSS reaching the dashboard.
package sanitize

import (
	"regexp"
	"strings"
)

// tagPattern matches HTML/script tags, including unterminated ones at end
// of input.
var tagPattern = regexp.MustCompile(`</?[^>]+(>|$)`)

// Strip removes markup from s. Stripping is idempotent: applying it to an
// already-stripped string returns the same string.
func Strip(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// StripAndTrim strips markup and surrounding whitespace, truncating the
// result to max characters. Used for short fields like project names.
func StripAndTrim(s string, max int) string {
	s = Strip(strings.TrimSpace(s))
	if max > 0 && len(s) > max {
		s = s[:max]
	}
	return s
}

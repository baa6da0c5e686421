package strings

import (
	"strings"
)

// DefaultLogBodyMaxLen is the default maximum length of a response body echoed into logs.
const DefaultLogBodyMaxLen = 200

// MinTruncateLen is the minimum maxLen value for Truncate.
// Values smaller than this would not leave room for meaningful content plus "...".
const MinTruncateLen = 4

// Truncate collapses whitespace to single spaces and cuts s to maxLen runes,
// appending "..." when anything was removed.
//
// If maxLen is less than MinTruncateLen it is clamped to MinTruncateLen.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// Redact hides a secret for display, keeping at most the first four
// characters of values long enough that doing so leaks little.
func Redact(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) < 12:
		return "****"
	default:
		return secret[:4] + "****"
	}
}

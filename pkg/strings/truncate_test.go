package strings

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "hello",
			maxLen:   10,
			expected: "hello",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long string truncated",
			input:    "hello world this is a long string",
			maxLen:   15,
			expected: "hello world ...",
		},
		{
			name:     "json body flattened",
			input:    "[\n  {\"errorCode\": \"INVALID_SESSION_ID\"}\n]",
			maxLen:   100,
			expected: "[ {\"errorCode\": \"INVALID_SESSION_ID\"} ]",
		},
		{
			name:     "maxLen clamped",
			input:    "abcdefgh",
			maxLen:   1,
			expected: "a...",
		},
		{
			name:     "unicode safe",
			input:    "héllo wörld",
			maxLen:   8,
			expected: "héllo...",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truncate(tc.input, tc.maxLen); got != tc.expected {
				t.Errorf("Truncate(%q, %d) = %q, expected %q", tc.input, tc.maxLen, got, tc.expected)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"short":                  "****",
		"3MVG9aBcDeFgHiJkLmNoPq": "3MVG****",
	}
	for in, want := range tests {
		if got := Redact(in); got != want {
			t.Errorf("Redact(%q) = %q, expected %q", in, got, want)
		}
	}
}

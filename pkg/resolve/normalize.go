package resolve

import (
	"strings"
	"unicode"
)

// Normalize reduces text to a canonical form for redundancy comparison:
// lower-cased, stripped of everything outside [a-z0-9\s], runs of whitespace
// collapsed to single spaces, and trimmed. Normalize is idempotent.
//
// This is an exact-match filter, not semantic deduplication. Paraphrases
// normalize to different strings and are stored as distinct memories.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSpace := false
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}

	return b.String()
}

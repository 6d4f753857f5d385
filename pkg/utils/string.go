package utils

// Truncate shortens s to at most maxLen runes, appending an ellipsis when
// anything was cut. Memory content is arbitrary UTF-8, so the cut is made on
// rune boundaries rather than bytes.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// FirstLine returns everything before the first newline of s, which keeps
// multi-line memory content from breaking single-line list renders.
func FirstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

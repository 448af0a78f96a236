package textutil

import "strings"

// SanitizeToken reduces value to characters safe in a file name on any
// filesystem: ASCII letters (lower-cased), digits, '-', '_' and '.'. Every
// other rune becomes '_'. Leading and trailing separators are trimmed and the
// result is cut to maxLen bytes when maxLen > 0. Empty results yield
// "unknown".
func SanitizeToken(value string, maxLen int) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.TrimSpace(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-.")
	if maxLen > 0 && len(out) > maxLen {
		out = strings.TrimRight(out[:maxLen], "_-.")
	}
	if out == "" {
		return "unknown"
	}
	return out
}

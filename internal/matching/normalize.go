package matching

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize reduces a display string to the form used for comparison.
func Normalize(s string) string {
	// Casers hold state, so each call gets its own.
	s = cases.Lower(language.Und).String(s)

	// Only the parenthesised form is cut; "Artist feat. Other" stays whole.
	s = cutAt(s, "(feat")
	s = cutAt(s, "(live")
	s = strings.ReplaceAll(s, "&", "and")

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; isAlnum(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func cutAt(s, marker string) string {
	if i := strings.Index(s, marker); i >= 0 {
		return strings.TrimRight(s[:i], " \t\r\n")
	}
	return s
}

// isAlnum reports whether c is an ASCII letter or digit. Multi-byte UTF-8 sequences never qualify.
func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

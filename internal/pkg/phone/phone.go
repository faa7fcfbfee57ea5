// Package phone normalises phone numbers into the single comparable form
// accounts and verification tokens are keyed by.
package phone

import (
	"regexp"
	"strings"
	"unicode"
)

var canonicalPattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)

// Canonicalize removes every whitespace rune and prefixes "+" when missing.
// Canonicalize(Canonicalize(x)) == Canonicalize(x) for every x.
func Canonicalize(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "+") {
		s = "+" + s
	}
	return s
}

// Valid reports whether raw canonicalises to "+" followed by 8 to 15 digits.
func Valid(raw string) bool {
	return canonicalPattern.MatchString(Canonicalize(raw))
}

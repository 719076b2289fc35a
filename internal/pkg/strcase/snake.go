// Package strcase converts Go identifiers to the snake_case keys used in API
// error maps.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to lower snake_case and keeps
// initialisms whole: OTPHash becomes otp_hash, UserID becomes user_id.
func ToLowerSnake(s string) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range rs {
		if i > 0 && wordStart(rs, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// wordStart reports whether rs[i] begins a new word: an upper-case rune after
// a lower-case rune or digit, or the last capital of an initialism that is
// followed by a lower-case rune.
func wordStart(rs []rune, i int) bool {
	if !unicode.IsUpper(rs[i]) {
		return false
	}

	prev := rs[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	return unicode.IsUpper(prev) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
}

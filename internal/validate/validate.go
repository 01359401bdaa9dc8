// Package validate holds the field checks shared by the public forms.
package validate

import (
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`^[\p{L}\p{N}_.-]+@[\p{L}\p{N}_.-]+\.[\p{L}\p{N}_]+$`)
	phonePattern    = regexp.MustCompile(`^(\+7|8)\d{10}$`)
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
)

// Email reports whether s looks like local@domain.tld. Letters and digits
// from any script are accepted, so Cyrillic addresses and .рф domains pass.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Phone reports whether s is a Russian number in +7XXXXXXXXXX or 8XXXXXXXXXX
// form once spaces, dashes and parentheses are removed. Empty is valid.
func Phone(s string) bool {
	if s == "" {
		return true
	}
	return phonePattern.MatchString(NormalizePhone(s))
}

// NormalizePhone strips the separators Phone ignores.
func NormalizePhone(s string) string {
	return phoneSeparators.ReplaceAllString(s, "")
}

// Required reports whether s has non-whitespace content.
func Required(s string) bool {
	return strings.TrimSpace(s) != ""
}

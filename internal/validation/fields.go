// Package validation holds the field checks shared by the onboarding steps.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Deliberately permissive: the IDM core owns canonical email validation,
// this only rejects obvious garbage before it reaches a flow.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return len(s) <= 254 && emailRe.MatchString(s)
}

// ValidDate reports whether s is an ISO 8601 calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidName reports whether s is usable as a first/last name.
func ValidName(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && utf8.RuneCountInString(s) <= 100
}

// MinPasswordLength matches the policy applied at signup.
const MinPasswordLength = 8

// ValidPassword reports whether s meets the length policy.
func ValidPassword(s string) bool {
	n := utf8.RuneCountInString(s)
	return n >= MinPasswordLength && n <= 128
}

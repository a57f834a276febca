package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %q", email)
	}
	return nil
}

// SanitizeText removes control characters other than tab and newlines and
// trims surrounding whitespace
func SanitizeText(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

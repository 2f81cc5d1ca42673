package vault

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinAccountNameLen is the shortest accepted account name.
	MinAccountNameLen = 6
	MinPasswordLen    = 8
	MaxPasswordLen    = 64
)

// PasswordSpecials is the set of characters that satisfy the special
// character rule.
const PasswordSpecials = `!@#$%^&*()_+=-{}[]:;"'<>,.?/\|`

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// SanitizeAccount maps an account name to its filesystem token.
func SanitizeAccount(account string) string {
	return unsafeChars.ReplaceAllString(account, "_")
}

// ValidateAccountName trims name and checks its length.
func ValidateAccountName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinAccountNameLen {
		return "", fmt.Errorf("%w: must be at least %d characters", ErrInvalidAccountName, MinAccountNameLen)
	}
	return name, nil
}

// CheckPassword applies the account password rules and reports the first
// rule that fails.
func CheckPassword(password []byte) error {
	n := utf8.RuneCount(password)
	switch {
	case n < MinPasswordLen:
		return fmt.Errorf("%w: must be at least %d characters long", ErrWeakPassword, MinPasswordLen)
	case n > MaxPasswordLen:
		return fmt.Errorf("%w: too long", ErrWeakPassword)
	}

	var upper, lower, digit, special bool
	for _, r := range string(password) {
		switch {
		case r == ' ':
			return fmt.Errorf("%w: must not contain spaces", ErrWeakPassword)
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSpecials, r):
			special = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: needs an uppercase letter", ErrWeakPassword)
	case !lower:
		return fmt.Errorf("%w: needs a lowercase letter", ErrWeakPassword)
	case !digit:
		return fmt.Errorf("%w: needs a number", ErrWeakPassword)
	case !special:
		return fmt.Errorf("%w: needs a special character", ErrWeakPassword)
	}
	return nil
}

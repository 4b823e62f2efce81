// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxFullNameLength = 100
	MaxEmailLength    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Usernames that would shadow a route or impersonate the service.
var reservedUsernames = map[string]struct{}{
	"admin":    {},
	"api":      {},
	"auth":     {},
	"explore":  {},
	"feed":     {},
	"health":   {},
	"login":    {},
	"logout":   {},
	"metrics":  {},
	"posts":    {},
	"profile":  {},
	"search":   {},
	"signup":   {},
	"stories":  {},
	"uploads":  {},
	"user":     {},
	"settings": {},
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}

	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return fmt.Errorf("username must be at least %d characters long", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username must not exceed %d characters", MaxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, periods, and underscores")
	}

	if username[0] == '.' || username[len(username)-1] == '.' || strings.Contains(username, "..") {
		return fmt.Errorf("username cannot start or end with a period or contain consecutive periods")
	}

	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return fmt.Errorf("username is reserved")
	}

	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must not exceed %d characters", MaxEmailLength)
	}

	return nil
}

// ValidateFullName requires a non-blank display name.
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("full name is required")
	}
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return fmt.Errorf("full name must not exceed %d characters", MaxFullNameLength)
	}
	return nil
}

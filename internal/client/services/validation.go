package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/ideauth/internal/common"
)

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        []byte
	ConfirmPassword []byte
	RememberMe      bool
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

const passwordSpecials = "!@#$%^&*"

// ValidationError names the offending field of a form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return common.ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ValidateRegistration checks the sign-up form before any key material is
// produced.
func ValidateRegistration(r RegisterRequest) error {
	if r.Username == "" || r.Email == "" || len(r.Password) == 0 || len(r.ConfirmPassword) == 0 {
		return invalid("form", "all fields are required")
	}

	if !usernamePattern.MatchString(r.Username) {
		return invalid("username", "must be 3 to 20 letters, digits or underscores")
	}

	if n := len([]rune(r.Email)); n < 5 || n > 50 || !strings.Contains(r.Email, "@") {
		return invalid("email", "must be 5 to 50 characters and contain @")
	}

	if err := validatePassword(r.Password); err != nil {
		return err
	}

	if string(r.Password) != string(r.ConfirmPassword) {
		return invalid("confirm_password", "passwords do not match")
	}
	return nil
}

func validatePassword(pw []byte) error {
	if len(pw) < 8 {
		return invalid("password", "must be at least 8 characters")
	}

	var lower, upper, digit, special bool
	for _, c := range string(pw) {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, c):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		return invalid("password", "needs a lower-case letter, an upper-case letter, a digit and one of "+passwordSpecials)
	}
	return nil
}

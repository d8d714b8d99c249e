package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AuthRequestValidator validates authentication-related requests
type AuthRequestValidator struct{}

// NewAuthRequestValidator creates a new AuthRequestValidator
func NewAuthRequestValidator() *AuthRequestValidator {
	return &AuthRequestValidator{}
}

// ValidateRegisterRequest validates a registration request and returns the
// normalized email and name.
func (v *AuthRequestValidator) ValidateRegisterRequest(email, password, name string) (string, string, error) {
	var errs Errors
	email = v.checkEmail(email, &errs)
	v.checkPassword(password, &errs)

	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n > 255 {
		errs.add("name", fmt.Sprintf("Name must be at most 255 characters, got %d", n), TypeTooLong)
	}

	if len(errs) > 0 {
		return "", "", errs
	}
	return email, name, nil
}

// ValidateLoginRequest validates a login request and returns the normalized email
func (v *AuthRequestValidator) ValidateLoginRequest(email, password string) (string, error) {
	var errs Errors
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		errs.add("email", "Email cannot be empty", TypeMissing)
	}
	if password == "" {
		errs.add("password", "Password cannot be empty", TypeMissing)
	}
	if len(errs) > 0 {
		return "", errs
	}
	return email, nil
}

func (v *AuthRequestValidator) checkEmail(email string, errs *Errors) string {
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case email == "":
		errs.add("email", "Email cannot be empty", TypeMissing)
	case len(email) > 255:
		errs.add("email", fmt.Sprintf("Email must be at most 255 characters long, got %d", len(email)), TypeTooLong)
	case !emailRegex.MatchString(email):
		errs.add("email", "Invalid email format", TypeInvalidEmail)
	}
	return email
}

func (v *AuthRequestValidator) checkPassword(password string, errs *Errors) {
	switch {
	case password == "":
		errs.add("password", "Password cannot be empty", TypeMissing)
	case len(password) < 8:
		errs.add("password", fmt.Sprintf("Password must be at least 8 characters long, got %d", len(password)), TypeTooShort)
	case len(password) > 72:
		errs.add("password", fmt.Sprintf("Password must be at most 72 characters long, got %d", len(password)), TypeTooLong)
	}
}

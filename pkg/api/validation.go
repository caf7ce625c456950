package api

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rhuss/accolade/pkg/auth/password"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MinUsernameLength int
	MaxUsernameLength int
	MaxNameLength     int
	MaxEmailLength    int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MinUsernameLength: 3,
		MaxUsernameLength: 50,
		MaxNameLength:     50,
		MaxEmailLength:    254,
	}
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateLoginRequest checks that both credentials are present. It
// returns an *APIError describing the first failure, or nil.
func ValidateLoginRequest(req *LoginRequest) *APIError {
	if strings.TrimSpace(req.Username) == "" {
		return NewInvalidRequestError("username", "username is required")
	}
	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	return nil
}

// ValidateRegisterRequest checks the shape of a registration request.
// Password strength is enforced separately by the registration command.
func ValidateRegisterRequest(req *RegisterRequest, cfg ValidationConfig) *APIError {
	n := utf8.RuneCountInString(req.Username)
	if n == 0 {
		return NewInvalidRequestError("username", "username is required")
	}
	if n < cfg.MinUsernameLength || n > cfg.MaxUsernameLength {
		return NewInvalidRequestError("username",
			fmt.Sprintf("username must be between %d and %d characters", cfg.MinUsernameLength, cfg.MaxUsernameLength))
	}
	if !usernamePattern.MatchString(req.Username) {
		return NewInvalidRequestError("username", "username may only contain letters, digits, '.', '_' and '-'")
	}

	if req.Password == "" {
		return NewInvalidRequestError("password", "password is required")
	}
	if len(req.Password) > password.MaxBytes {
		return NewInvalidRequestError("password",
			fmt.Sprintf("password exceeds maximum of %d bytes", password.MaxBytes))
	}

	if req.Email == "" {
		return NewInvalidRequestError("email", "email is required")
	}
	if len(req.Email) > cfg.MaxEmailLength {
		return NewInvalidRequestError("email",
			fmt.Sprintf("email exceeds maximum of %d characters", cfg.MaxEmailLength))
	}
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		return NewInvalidRequestError("email", "email is not a valid address")
	}

	if utf8.RuneCountInString(req.FirstName) > cfg.MaxNameLength {
		return NewInvalidRequestError("firstName",
			fmt.Sprintf("firstName exceeds maximum of %d characters", cfg.MaxNameLength))
	}
	if utf8.RuneCountInString(req.LastName) > cfg.MaxNameLength {
		return NewInvalidRequestError("lastName",
			fmt.Sprintf("lastName exceeds maximum of %d characters", cfg.MaxNameLength))
	}

	return nil
}

// Package password provides one-way password hashing and verification
// backed by bcrypt, plus the password strength policy applied at
// registration.
//
// The encoded hash carries its own salt and cost, so no separate salt
// storage is needed. Hashing is deliberately slow; keep it off the
// per-request authentication path.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 12

// MinLength is the minimum number of characters accepted by the strength policy.
const MinLength = 8

// MaxBytes is the longest input bcrypt accepts.
const MaxBytes = 72

// SpecialCharacters lists the characters that satisfy the special-character
// rule of the strength policy.
const SpecialCharacters = "@$!%*?&"

// ErrInvalidInput is returned by Hash for empty, blank, or oversized input.
var ErrInvalidInput = errors.New("invalid password input")

// Hasher hashes and verifies passwords with a fixed bcrypt cost.
// It holds no mutable state and is safe for concurrent use.
type Hasher struct {
	cost int
}

// New creates a Hasher. Costs outside bcrypt's accepted range fall back
// to DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured work factor.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns the salted bcrypt encoding of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if strings.TrimSpace(plaintext) == "" {
		return "", fmt.Errorf("%w: password is blank", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. It never returns an
// error: empty inputs and malformed hashes simply do not match.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// MeetsStrengthPolicy reports whether plaintext is at least MinLength
// characters long and contains an uppercase letter, a lowercase letter,
// a digit, and one of SpecialCharacters.
func MeetsStrengthPolicy(plaintext string) bool {
	if utf8.RuneCountInString(plaintext) < MinLength {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range plaintext {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(SpecialCharacters, r):
			special = true
		}
	}
	return upper && lower && digit && special
}

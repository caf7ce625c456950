// Package token issues and validates the stateless bearer tokens used by
// the authentication core.
//
// Tokens are HS256 JWTs: three base64url segments (header, claims,
// signature) joined by dots. Validity is derived entirely from the
// signature and the expiry claim; nothing is stored server-side.
package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenType is the scheme reported to clients alongside an issued token.
const TokenType = "Bearer"

// Sentinel errors returned by Codec.Validate and NewCodec.
var (
	// ErrMalformedToken means the token cannot be split or decoded into
	// the expected three-part structure.
	ErrMalformedToken = errors.New("malformed token")

	// ErrTamperedToken means the signature does not match the content.
	ErrTamperedToken = errors.New("token signature mismatch")

	// ErrExpiredToken means the token's expiry instant has passed.
	ErrExpiredToken = errors.New("token expired")

	ErrEmptySecret = errors.New("signing secret is empty")
	ErrInvalidTTL  = errors.New("token ttl must be positive")
)

// Subject is the identity a token is issued for.
type Subject struct {
	Username  string
	UserKey   string
	Email     string
	FirstName string
	LastName  string
}

// Claims is the payload embedded in an issued token. The registered
// "sub" claim carries the username.
type Claims struct {
	jwtlib.RegisteredClaims
	UserKey   string `json:"userKey"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Username returns the subject claim.
func (c *Claims) Username() string {
	return c.Subject
}

// IssuedAtTime returns the issuance instant in UTC, or the zero time.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time.UTC()
}

// ExpiresAtTime returns the expiry instant in UTC, or the zero time.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}

// IssuedToken is the artifact returned to a client after a successful login.
// It is never persisted.
type IssuedToken struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserKey   string    `json:"userKey"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

package auth

import (
	"errors"
	"slices"
)

// Sentinel errors.
var (
	// ErrUserResolution means a token validated but its subject could not
	// be resolved to a user (deleted after issuance, storage failure).
	ErrUserResolution = errors.New("user resolution failed")

	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Authentication is the immutable per-request identity record attached by
// the gate. It lives only for the duration of one request.
type Authentication struct {
	PrincipalUsername string
	UserKey           string
	Email             string
	authorities       []string
}

// NewAuthentication builds an Authentication. The authorities slice is copied.
func NewAuthentication(username, userKey, email string, authorities []string) *Authentication {
	return &Authentication{
		PrincipalUsername: username,
		UserKey:           userKey,
		Email:             email,
		authorities:       slices.Clone(authorities),
	}
}

// Authorities returns a copy of the granted authorities.
func (a *Authentication) Authorities() []string {
	if a == nil {
		return nil
	}
	return slices.Clone(a.authorities)
}

// HasAuthority reports whether the principal holds the named authority.
func (a *Authentication) HasAuthority(authority string) bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.authorities, authority)
}

package storage

import (
	"context"
	"slices"
	"time"
)

// User is a registered account as held by a UserStore.
type User struct {
	ID           string
	UserKey      string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Authorities  []string
	CreatedAt    time.Time
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Authorities = slices.Clone(u.Authorities)
	return &c
}

// UserStore persists and resolves users.
type UserStore interface {
	// FindByUsername returns the user with the exact username or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// CreateUser stores a new user. It returns ErrConflict when the
	// username, email, or user key is already in use.
	CreateUser(ctx context.Context, u *User) error

	// HealthCheck reports whether the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

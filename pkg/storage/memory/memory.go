// Package memory provides an in-memory implementation of storage.UserStore
// for tests and single-process deployments. Users are lost when the
// process restarts.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/accolade/pkg/storage"
)

// Store is an in-memory UserStore. Usernames are matched exactly; emails
// are unique case-insensitively.
type Store struct {
	mu         sync.RWMutex
	byUsername map[string]*storage.User
	emails     map[string]string // lowercased email -> username
	userKeys   map[string]string // user key -> username
}

// Ensure Store implements storage.UserStore at compile time.
var _ storage.UserStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		byUsername: make(map[string]*storage.User),
		emails:     make(map[string]string),
		userKeys:   make(map[string]string),
	}
}

// FindByUsername returns a copy of the stored user.
func (s *Store) FindByUsername(_ context.Context, username string) (*storage.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byUsername[username]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u.Clone(), nil
}

// CreateUser stores a copy of u. A missing ID or CreatedAt is filled in
// on the caller's value as well.
func (s *Store) CreateUser(_ context.Context, u *storage.User) error {
	email := strings.ToLower(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[u.Username]; exists {
		return storage.ErrConflict
	}
	if _, exists := s.emails[email]; exists && email != "" {
		return storage.ErrConflict
	}
	if _, exists := s.userKeys[u.UserKey]; exists {
		return storage.ErrConflict
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	s.byUsername[u.Username] = u.Clone()
	if email != "" {
		s.emails[email] = u.Username
	}
	s.userKeys[u.UserKey] = u.Username
	return nil
}

// Len returns the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUsername)
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

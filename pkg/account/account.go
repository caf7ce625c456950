// Package account implements the login and registration commands that
// sit in front of the authentication core: login verifies credentials and
// issues a bearer token, registration creates a user with a hashed
// password.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rhuss/accolade/pkg/api"
	"github.com/rhuss/accolade/pkg/auth"
	"github.com/rhuss/accolade/pkg/auth/password"
	"github.com/rhuss/accolade/pkg/auth/token"
	"github.com/rhuss/accolade/pkg/debug"
	"github.com/rhuss/accolade/pkg/observability"
	"github.com/rhuss/accolade/pkg/storage"
)

// DefaultAuthority is granted to every newly registered user.
const DefaultAuthority = "ROLE_USER"

// maxUserKeyAttempts bounds retries when a generated user key collides.
const maxUserKeyAttempts = 5

// Sentinel errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrWeakPassword       = errors.New("password does not meet the strength policy")
	ErrUserExists         = errors.New("user already exists")
)

// TokenIssuer signs tokens for authenticated users. *token.Codec satisfies it.
type TokenIssuer interface {
	Issue(s token.Subject) (*token.IssuedToken, error)
}

// PasswordHasher hashes and verifies passwords. *password.Hasher satisfies it.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Service runs the login and registration commands.
type Service struct {
	users   storage.UserStore
	hasher  PasswordHasher
	issuer  TokenIssuer
	limiter *auth.LoginLimiter

	// dummyHash is compared against when the username is unknown so that
	// both failure paths cost one hash comparison.
	dummyHash string
}

// NewService creates a Service. limiter may be nil.
func NewService(users storage.UserStore, hasher PasswordHasher, issuer TokenIssuer, limiter *auth.LoginLimiter) (*Service, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		limiter:   limiter,
		dummyHash: dummy,
	}, nil
}

// Login verifies username and plaintext and issues a token.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, plaintext string) (*token.IssuedToken, error) {
	if err := s.limiter.Allow(username); err != nil {
		observability.LoginsTotal.WithLabelValues("throttled").Inc()
		slog.Warn("login throttled", "username", username)
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		observability.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if user == nil {
		s.hasher.Verify(plaintext, s.dummyHash)
		observability.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		debug.Log(debug.CategoryAuth, "login failed", "username", username, "reason", "unknown user")
		return nil, ErrInvalidCredentials
	}

	if !s.hasher.Verify(plaintext, user.PasswordHash) {
		observability.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		debug.Log(debug.CategoryAuth, "login failed", "username", username, "reason", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	issued, err := s.issuer.Issue(token.Subject{
		Username:  user.Username,
		UserKey:   user.UserKey,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
	if err != nil {
		observability.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	s.limiter.Reset(username)
	observability.LoginsTotal.WithLabelValues("success").Inc()
	slog.Info("user logged in", "username", user.Username, "user_key", user.UserKey)

	return issued, nil
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// Register creates a user with a hashed password, a fresh user key and
// the default authority.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*storage.User, error) {
	if !password.MeetsStrengthPolicy(in.Password) {
		observability.RegistrationsTotal.WithLabelValues("weak_password").Inc()
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, password.ErrInvalidInput) {
		observability.RegistrationsTotal.WithLabelValues("weak_password").Inc()
		return nil, ErrWeakPassword
	}
	if err != nil {
		observability.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &storage.User{
		Username:     in.Username,
		Email:        strings.TrimSpace(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Authorities:  []string{DefaultAuthority},
	}

	// A conflict may come from the random user key rather than the
	// username or email; retry with a fresh key a few times before
	// reporting the user as existing.
	for attempt := 1; ; attempt++ {
		user.UserKey = api.NewUserKey()
		err = s.users.CreateUser(ctx, user)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) {
			observability.RegistrationsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("creating user: %w", err)
		}
		if attempt >= maxUserKeyAttempts || s.identityTaken(ctx, user) {
			observability.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, ErrUserExists
		}
	}

	observability.RegistrationsTotal.WithLabelValues("success").Inc()
	slog.Info("user registered", "username", user.Username, "user_key", user.UserKey)

	return user.Clone(), nil
}

// identityTaken reports whether the conflict was caused by the username.
// Email conflicts cannot be told apart from key conflicts through the
// store interface; they exhaust the retries instead.
func (s *Service) identityTaken(ctx context.Context, u *storage.User) bool {
	_, err := s.users.FindByUsername(ctx, u.Username)
	return err == nil
}

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rhuss/accolade/pkg/auth/token"
	"github.com/rhuss/accolade/pkg/debug"
	"github.com/rhuss/accolade/pkg/observability"
	"github.com/rhuss/accolade/pkg/storage"
)

// BearerPrefix is the case-sensitive Authorization scheme prefix.
const BearerPrefix = "Bearer "

// TokenValidator validates a raw bearer token. *token.Codec satisfies it.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// UserLookup resolves a token subject to a user. storage.UserStore
// satisfies it.
type UserLookup interface {
	FindByUsername(ctx context.Context, username string) (*storage.User, error)
}

// Middleware creates the request authentication gate.
//
// Requests to loginPath pass through untouched. Requests that already
// carry an Authentication are not re-evaluated. Otherwise a valid
// "Bearer " token whose subject resolves to a user attaches an
// Authentication to the request context. Every failure is logged and the
// request continues anonymously; the gate never writes a response.
func Middleware(validator TokenValidator, users UserLookup, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == loginPath {
				debug.Trace(debug.CategoryAuth, "login path bypasses authentication", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			if CurrentPrincipal(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			a := authenticate(r, validator, users)
			if a == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthentication(r.Context(), a)))
		})
	}
}

// authenticate returns the principal for r, or nil for anonymous requests.
func authenticate(r *http.Request, validator TokenValidator, users UserLookup) *Authentication {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, BearerPrefix) {
		debug.Trace(debug.CategoryAuth, "no bearer credentials", "path", r.URL.Path)
		return nil
	}
	raw := header[len(BearerPrefix):]

	claims, err := validator.Validate(raw)
	if err != nil {
		slog.Warn("token validation failed",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		observability.TokenRejectedTotal.WithLabelValues(token.Reason(err)).Inc()
		return nil
	}

	user, err := users.FindByUsername(r.Context(), claims.Username())
	if err == nil && user == nil {
		err = storage.ErrNotFound
	}
	if err != nil {
		slog.Warn("token subject could not be resolved",
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"subject", claims.Username(),
			"error", fmt.Errorf("%w: %w", ErrUserResolution, err),
		)
		observability.UserResolutionFailuresTotal.Inc()
		return nil
	}

	debug.Log(debug.CategoryAuth, "request authenticated",
		"subject", user.Username,
		"path", r.URL.Path,
	)

	return NewAuthentication(user.Username, claims.UserKey, claims.Email, user.Authorities)
}

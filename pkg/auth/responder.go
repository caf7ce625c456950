package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/accolade/pkg/api"
	"github.com/rhuss/accolade/pkg/i18n"
	"github.com/rhuss/accolade/pkg/observability"
)

// now is the clock used for failure-body timestamps.
var now = time.Now

// WriteUnauthorized writes the fixed 401 failure body for r. The message
// is localized from Accept-Language and never says why a token was
// rejected.
func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, r, http.StatusUnauthorized, i18n.KeyUnauthorized)
}

// WriteForbidden writes a 403 failure body for an authenticated principal
// that lacks a required authority.
func WriteForbidden(w http.ResponseWriter, r *http.Request) {
	writeFailure(w, r, http.StatusForbidden, i18n.KeyForbidden)
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, key string) {
	body := api.NewFailureBody(status, i18n.ForRequest(r, key), r.URL.Path, now())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("writing failure body", "error", err)
	}
}

// RequireAuthentication rejects anonymous requests with WriteUnauthorized.
// It must run after Middleware.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentPrincipal(r.Context()) == nil {
			observability.UnauthorizedTotal.Inc()
			WriteUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthority rejects anonymous requests with 401 and principals
// without the authority with 403.
func RequireAuthority(authority string, next http.Handler) http.Handler {
	return RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CurrentPrincipal(r.Context()).HasAuthority(authority) {
			WriteForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

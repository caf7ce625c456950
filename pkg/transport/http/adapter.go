package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/rhuss/accolade/pkg/account"
	"github.com/rhuss/accolade/pkg/api"
	"github.com/rhuss/accolade/pkg/auth"
	"github.com/rhuss/accolade/pkg/auth/token"
	"github.com/rhuss/accolade/pkg/i18n"
	"github.com/rhuss/accolade/pkg/observability"
	"github.com/rhuss/accolade/pkg/storage"
	"github.com/rhuss/accolade/pkg/transport"
)

// Default routes.
const (
	DefaultLoginPath   = "/api/auth/login"
	DefaultMetricsPath = "/metrics"
	RegisterPath       = "/api/auth/register"
	MePath             = "/api/auth/me"
	HealthPath         = "/healthz"
)

// Accounts runs the login and registration commands. *account.Service
// satisfies it.
type Accounts interface {
	Login(ctx context.Context, username, password string) (*token.IssuedToken, error)
	Register(ctx context.Context, in account.RegisterInput) (*storage.User, error)
}

// HealthChecker reports backend health for GET /healthz.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Adapter serves the authentication API over HTTP.
type Adapter struct {
	accounts Accounts
	health   HealthChecker // nil reports healthy
	mux      *http.ServeMux
	handler  http.Handler
	config   Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	LoginPath   string
	MetricsPath string // empty disables the metrics endpoint
	MaxBodySize int64
	Validation  api.ValidationConfig
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		LoginPath:   DefaultLoginPath,
		MetricsPath: DefaultMetricsPath,
		MaxBodySize: 1 << 20, // 1 MB
		Validation:  api.DefaultValidationConfig(),
	}
}

// NewAdapter creates an HTTP adapter. gate is the request authentication
// middleware and runs directly in front of the router; a nil gate leaves
// every request anonymous. middlewares wrap the gate in the given order.
func NewAdapter(accounts Accounts, health HealthChecker, gate transport.Middleware, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	if cfg.Validation == (api.ValidationConfig{}) {
		cfg.Validation = api.DefaultValidationConfig()
	}

	a := &Adapter{
		accounts: accounts,
		health:   health,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.Handle(cfg.LoginPath, allowMethods(http.HandlerFunc(a.handleLogin), http.MethodPost))
	a.mux.Handle(RegisterPath, allowMethods(http.HandlerFunc(a.handleRegister), http.MethodPost))
	a.mux.Handle(MePath, allowMethods(auth.RequireAuthentication(http.HandlerFunc(a.handleMe)), http.MethodGet, http.MethodHead))
	a.mux.Handle(HealthPath, allowMethods(http.HandlerFunc(a.handleHealth), http.MethodGet, http.MethodHead))
	if cfg.MetricsPath != "" {
		a.mux.Handle(cfg.MetricsPath, allowMethods(observability.Handler(), http.MethodGet))
	}
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteAPIError(w, r, api.NewNotFoundError(i18n.ForRequest(r, i18n.KeyNotFound)))
	})

	var h http.Handler = a.mux
	if gate != nil {
		h = gate(h)
	}
	if len(middlewares) > 0 {
		h = transport.Chain(middlewares...)(h)
	}
	a.handler = h

	return a
}

// Handler returns the http.Handler for this adapter, including the
// middleware chain. Use this to integrate with an http.Server or test
// with httptest.
func (a *Adapter) Handler() http.Handler {
	return a.handler
}

// allowMethods answers requests with any other method with 405.
func allowMethods(next http.Handler, methods ...string) http.Handler {
	allow := strings.Join(methods, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				next.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Allow", allow)
		transport.WriteStatus(w, r, http.StatusMethodNotAllowed)
	})
}

// handleLogin handles POST {loginPath}.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateLoginRequest(&req); apiErr != nil {
		transport.WriteAPIError(w, r, apiErr)
		return
	}

	issued, err := a.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrInvalidCredentials):
			transport.WriteAPIError(w, r, api.NewUnauthorizedError(i18n.ForRequest(r, i18n.KeyInvalidCredentials)))
		case errors.Is(err, account.ErrTooManyAttempts):
			w.Header().Set("Retry-After", "60")
			transport.WriteAPIError(w, r, api.NewTooManyRequestsError(i18n.ForRequest(r, i18n.KeyTooManyAttempts)))
		default:
			slog.Error("login failed", "request_id", transport.RequestIDFromContext(r.Context()), "error", err)
			transport.WriteAPIError(w, r, api.NewServerError(err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusOK, issued)
}

// handleRegister handles POST /api/auth/register.
func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !a.decodeJSON(w, r, &req) {
		return
	}
	if apiErr := api.ValidateRegisterRequest(&req, a.config.Validation); apiErr != nil {
		transport.WriteAPIError(w, r, apiErr)
		return
	}

	user, err := a.accounts.Register(r.Context(), account.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrWeakPassword):
			transport.WriteAPIError(w, r, api.NewInvalidRequestError("password", i18n.ForRequest(r, i18n.KeyWeakPassword)))
		case errors.Is(err, account.ErrUserExists):
			transport.WriteAPIError(w, r, api.NewConflictError(i18n.ForRequest(r, i18n.KeyUserExists)))
		default:
			slog.Error("registration failed", "request_id", transport.RequestIDFromContext(r.Context()), "error", err)
			transport.WriteAPIError(w, r, api.NewServerError(err.Error()))
		}
		return
	}

	writeJSON(w, http.StatusCreated, api.UserView{
		UserKey:     user.UserKey,
		Username:    user.Username,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Authorities: user.Authorities,
		CreatedAt:   user.CreatedAt,
	})
}

// handleMe handles GET /api/auth/me. It runs behind RequireAuthentication.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	p := auth.CurrentPrincipal(r.Context())
	writeJSON(w, http.StatusOK, api.PrincipalView{
		Username:    p.PrincipalUsername,
		UserKey:     p.UserKey,
		Email:       p.Email,
		Authorities: p.Authorities(),
	})
}

// handleHealth handles GET /healthz.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.HealthCheck(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			transport.WriteStatus(w, r, http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// decodeJSON reads a bounded JSON body into v. On failure it writes the
// error response and returns false.
func (a *Adapter) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			transport.WriteError(w, r, http.StatusUnsupportedMediaType,
				"Content-Type must be application/json", "content_type")
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize), "body")
			return false
		}
		transport.WriteError(w, r, http.StatusBadRequest, i18n.ForRequest(r, i18n.KeyInvalidRequest), "body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing response body", "error", err)
	}
}

// Package transport provides the net/http middleware chain and the
// failure-body writers shared by the accolade HTTP handlers.
//
// # Middleware
//
// Middleware wraps an http.Handler. Built-in middleware provides panic
// recovery, request ID assignment (X-Request-ID), and structured access
// logging via log/slog. Chain composes them so that the first middleware
// is the outermost wrapper.
//
// # Errors
//
// Every failed request is answered with an api.FailureBody. WriteAPIError
// renders a classified *api.APIError; WriteStatus renders a bare status
// with a localized message.
package transport

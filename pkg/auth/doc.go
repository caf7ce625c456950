// Package auth attaches the authenticated principal to inbound HTTP
// requests and enforces authentication at the edge.
//
// The design is fail-open at the gate and fail-closed at the edge.
// Middleware inspects the bearer token once per request and, when the
// token validates and its subject resolves to a user, stores an
// Authentication in the request context. Any failure along the way is
// logged and the request continues anonymously. Handlers that require a
// principal are wrapped with RequireAuthentication, which writes the
// fixed 401 failure body for anonymous callers.
package auth

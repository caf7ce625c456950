package auth

import "context"

// authenticationKey is a private type for the authentication context key.
type authenticationKey struct{}

// WithAuthentication stores the authenticated principal in the context.
func WithAuthentication(ctx context.Context, a *Authentication) context.Context {
	return context.WithValue(ctx, authenticationKey{}, a)
}

// CurrentPrincipal retrieves the authenticated principal.
// Returns nil if the request is anonymous.
func CurrentPrincipal(ctx context.Context) *Authentication {
	if v, ok := ctx.Value(authenticationKey{}).(*Authentication); ok {
		return v
	}
	return nil
}

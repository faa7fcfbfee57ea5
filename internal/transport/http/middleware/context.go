package middleware

import (
	"context"

	jwtinfra "github.com/go-marketplace-auth/internal/infrastructure/jwt"
)

type contextKey struct{ name string }

var claimsKey = contextKey{"claims"}

// WithClaims returns ctx carrying the decoded session claims.
func WithClaims(ctx context.Context, c jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, &c)
}

// ClaimsFromContext extracts session claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok && c != nil
}

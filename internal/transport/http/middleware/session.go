package middleware

import (
	"net/http"
	"strings"

	jwtinfra "github.com/go-marketplace-auth/internal/infrastructure/jwt"
	"github.com/go-marketplace-auth/internal/transport/http/sessioncookie"
)

// SessionDecoder verifies a session token without any I/O.
type SessionDecoder interface {
	Decode(token string) (jwtinfra.Claims, bool)
}

// TokenFromRequest returns the session token from the session cookie, or
// from a Bearer Authorization header when no cookie is present.
func TokenFromRequest(r *http.Request) (string, bool) {
	if tok, ok := sessioncookie.Read(r); ok {
		return tok, true
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, tok, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// Identify decodes the session when one is present and stores its claims in
// the request context. Requests without a valid session pass through.
func Identify(codec SessionDecoder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ClaimsFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			if tok, ok := TokenFromRequest(r); ok {
				if claims, valid := codec.Decode(tok); valid {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth is Identify followed by a 401 for requests without a valid session.
func Auth(codec SessionDecoder) func(http.Handler) http.Handler {
	identify := Identify(codec)
	return func(next http.Handler) http.Handler {
		return identify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := ClaimsFromContext(r.Context()); !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

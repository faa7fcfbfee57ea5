// Package gate decides, before any handler runs, whether a request is
// admitted or redirected based on its path and session.
package gate

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-marketplace-auth/internal/domain"
	jwtinfra "github.com/go-marketplace-auth/internal/infrastructure/jwt"
	"github.com/go-marketplace-auth/internal/transport/http/middleware"
)

// Action is the outcome of a gate decision.
type Action int

const (
	Admit Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "admit"
}

// Decision is what the gate does with a request. Target is set only for
// redirects.
type Decision struct {
	Action Action
	Target string
}

type Gate struct {
	policy Policy
}

// New returns a gate for p.
func New(p Policy) (*Gate, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Gate{policy: p}, nil
}

// Decide is a pure function of the path and the decoded session. rawPath is
// the path as sent by the client (percent-encoding intact); rules match its
// decoded, cleaned form and the sign-in callback carries it unchanged. ok is
// false when there is no valid session.
func (g *Gate) Decide(rawPath string, claims jwtinfra.Claims, ok bool) Decision {
	p := cleanPath(decodePath(rawPath))
	if matchesPublic(g.policy.Public, p) {
		return Decision{Action: Admit}
	}
	if !ok {
		return Decision{Action: Redirect, Target: g.signInURL(rawPath)}
	}
	switch {
	case underAny(g.policy.AdminPrefixes, p):
		if claims.Role != domain.RoleAdmin {
			return Decision{Action: Redirect, Target: g.policy.DefaultRoute}
		}
	case underAny(g.policy.PartnerPrefixes, p):
		if claims.Role != domain.RolePartner {
			return Decision{Action: Redirect, Target: g.policy.DefaultRoute}
		}
	case underAny(g.policy.UserPrefixes, p):
		if claims.Role == domain.RolePartner {
			return Decision{Action: Redirect, Target: g.policy.PartnerDefaultRoute}
		}
	}
	return Decision{Action: Admit}
}

func (g *Gate) signInURL(original string) string {
	sep := "?"
	if strings.Contains(g.policy.SignInPath, "?") {
		sep = "&"
	}
	return g.policy.SignInPath + sep + url.QueryEscape(g.policy.CallbackParam) + "=" + url.QueryEscape(original)
}

// decodePath undoes percent-encoding. A malformed escape is matched as-is.
func decodePath(raw string) string {
	if p, err := url.PathUnescape(raw); err == nil {
		return p
	}
	return raw
}

// cleanPath resolves dot segments and duplicate slashes so "/x/../admin"
// cannot slip past a prefix rule.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// Middleware runs the gate in front of next. Admitted requests carry the
// decoded claims in their context; redirects are 302 Found.
func Middleware(codec middleware.SessionDecoder, g *Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			var (
				claims jwtinfra.Claims
				ok     bool
			)
			if tok, present := middleware.TokenFromRequest(r); present {
				claims, ok = codec.Decode(tok)
			}
			d := g.Decide(r.URL.EscapedPath(), claims, ok)
			if d.Action == Redirect {
				http.Redirect(w, r, d.Target, http.StatusFound)
				return
			}
			if ok {
				r = r.WithContext(middleware.WithClaims(r.Context(), claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

package handler

import (
	"net/http"

	"github.com/go-marketplace-auth/internal/application/auth"
	"github.com/go-marketplace-auth/internal/transport/http/middleware"
	"github.com/go-marketplace-auth/internal/transport/http/sessioncookie"
)

// AuthHandler handles signup, signin and session endpoints.
type AuthHandler struct {
	svc           auth.Service
	secureCookies bool
}

// NewAuthHandler returns an AuthHandler. secureCookies forces the Secure
// attribute regardless of request scheme.
func NewAuthHandler(svc auth.Service, secureCookies bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookies: secureCookies}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AccountEnvelope{Success: true, Account: acc})
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req auth.SigninRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.svc.Signin(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.startSession(w, r, sess)
}

func (h *AuthHandler) SigninGoogle(w http.ResponseWriter, r *http.Request) {
	var req auth.GoogleSigninRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.svc.SigninWithGoogle(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	h.startSession(w, r, sess)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, sess *auth.Session) {
	sessioncookie.Write(w, r, sess.Token, h.secureCookies)
	writeJSON(w, http.StatusOK, SessionEnvelope{Account: sess.Account, ExpiresAt: sess.ExpiresAt})
}

// Signout clears the session cookie. Tokens stay valid until expiry.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	sessioncookie.Clear(w, r, h.secureCookies)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}

// Session reports the decoded session, or a null session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, SessionStateEnvelope{})
		return
	}
	cur := &CurrentSession{
		AccountID: claims.AccountID(),
		Role:      claims.Role,
		Name:      claims.Name,
		Email:     claims.Email,
	}
	if claims.ExpiresAt != nil {
		cur.ExpiresAt = claims.ExpiresAt.Time
	}
	writeJSON(w, http.StatusOK, SessionStateEnvelope{Session: cur})
}

package handler

import (
	"net/http"

	"github.com/go-marketplace-auth/internal/application/auth"
	"github.com/go-marketplace-auth/internal/transport/http/sessioncookie"
)

// OTPHandler handles one-time code issuance and verification.
type OTPHandler struct {
	svc           auth.Service
	secureCookies bool
}

func NewOTPHandler(svc auth.Service, secureCookies bool) *OTPHandler {
	return &OTPHandler{svc: svc, secureCookies: secureCookies}
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req auth.SendOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.SendOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OTPSendEnvelope{Success: true, Message: res.Message, Code: res.Code})
}

// Verify consumes a code. Signin-by-code responses also set the session cookie.
func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), req)
	if err != nil {
		httpError(w, r, err)
		return
	}
	if res.Session != nil {
		sessioncookie.Write(w, r, res.Session.Token, h.secureCookies)
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{Success: true, Account: res.Account})
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-marketplace-auth/internal/domain"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FieldErrorsEnvelope carries per-field reasons keyed by JSON field name.
type FieldErrorsEnvelope struct {
	Errors map[string]string `json:"errors"`
}

// AccountEnvelope wraps signup and OTP verification responses.
type AccountEnvelope struct {
	Success bool                  `json:"success"`
	Account *domain.PublicAccount `json:"account"`
}

// SessionEnvelope wraps signin responses. The token itself travels only in
// the session cookie.
type SessionEnvelope struct {
	Account   *domain.PublicAccount `json:"account"`
	ExpiresAt time.Time             `json:"expiresAt"`
}

// OTPSendEnvelope is the OTP issuance response. Code is present only when
// debug echo is enabled.
type OTPSendEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// CurrentSession is the decoded session exposed to the client.
type CurrentSession struct {
	AccountID string      `json:"id"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name,omitempty"`
	Email     string      `json:"email,omitempty"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// SessionStateEnvelope is null-session aware: Session is null when the
// request carries no valid session.
type SessionStateEnvelope struct {
	Session *CurrentSession `json:"session"`
}

// AccountPageEnvelope wraps paginated account list responses.
type AccountPageEnvelope struct {
	Data       []domain.PublicAccount `json:"data"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// decodeJSON reads a bounded JSON body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

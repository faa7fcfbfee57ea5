package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-marketplace-auth/internal/domain"
)

// httpError maps service errors onto status codes. Only messages this
// service authored reach the client; anything unrecognised is logged and
// reported as a 500.
func httpError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, FieldErrorsEnvelope{Errors: ve.Fields})
	case errors.As(err, &ce):
		writeJSON(w, http.StatusConflict, FieldErrorsEnvelope{Errors: map[string]string{ce.Field: "already registered"}})
	case errors.Is(err, domain.ErrInvalidOrExpiredCode):
		writeError(w, http.StatusBadRequest, domain.ErrInvalidOrExpiredCode.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, domain.ErrTooManyRequests):
		writeError(w, http.StatusTooManyRequests, "too many requests")
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

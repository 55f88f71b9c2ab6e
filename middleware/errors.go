package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/goGuard"
)

// Client-facing error bodies. They never carry the underlying cause.
const (
	msgInvalidCredentials = "invalid credentials"
	msgInvalidToken       = "invalid or expired token"
	msgAccessDenied       = "access denied"
	msgRateLimited        = "too many login attempts"
	msgUnavailable        = "service unavailable"
	msgInternal           = "internal error"
	msgBadRequest         = "bad request"
)

type errorBody struct {
	Error string `json:"error"`
}

// StatusFor maps an engine error to its HTTP status and client message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, goGuard.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, goGuard.ErrTokenInvalid):
		return http.StatusForbidden, msgInvalidToken
	case errors.Is(err, goGuard.ErrAccessDenied):
		return http.StatusForbidden, msgAccessDenied
	case errors.Is(err, goGuard.ErrLoginRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, goGuard.ErrRateLimiterUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, msg := StatusFor(err)
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

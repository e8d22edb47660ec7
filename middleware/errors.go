package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/jwt"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

// Classify maps an engine error to a status code and a caller-safe body.
// Wrapped internal detail never reaches the body.
func Classify(err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, authcore.ErrNoCredential):
		return http.StatusUnauthorized, ErrorBody{Error: "no_credential", Message: "authentication required"}
	case errors.Is(err, authcore.ErrExpired):
		return http.StatusUnauthorized, ErrorBody{Error: "token_expired", Message: "access token expired", Reason: jwt.ReasonExpired.String()}
	case errors.Is(err, authcore.ErrInvalidSignature):
		body := ErrorBody{Error: "invalid_token", Message: "access token invalid"}
		var te *authcore.TokenError
		if errors.As(err, &te) {
			body.Reason = te.Reason.String()
		}
		return http.StatusUnauthorized, body
	case errors.Is(err, authcore.ErrRevoked):
		return http.StatusUnauthorized, ErrorBody{Error: "token_revoked", Message: "session has been revoked"}
	case errors.Is(err, authcore.ErrSubjectMissing):
		return http.StatusUnauthorized, ErrorBody{Error: "subject_missing", Message: "account not available"}
	case errors.Is(err, authcore.ErrInvalidRefresh):
		return http.StatusUnauthorized, ErrorBody{Error: "invalid_refresh", Message: "invalid or expired refresh token"}
	case errors.Is(err, authcore.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorBody{Error: "invalid_credentials", Message: "invalid email or password"}
	case errors.Is(err, authcore.ErrForbidden):
		return http.StatusForbidden, ErrorBody{Error: "forbidden", Message: "insufficient permissions"}
	case errors.Is(err, authcore.ErrSessionNotFound):
		return http.StatusNotFound, ErrorBody{Error: "session_not_found", Message: "session not found"}
	case errors.Is(err, authcore.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorBody{Error: "rate_limited", Message: "too many attempts, try again later"}
	case errors.Is(err, authcore.ErrStorageUnavailable), errors.Is(err, authcore.ErrCacheUnavailable):
		return http.StatusServiceUnavailable, ErrorBody{Error: "unavailable", Message: "service temporarily unavailable"}
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal_error", Message: "internal error"}
	}
}

// WriteError renders err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	status, body := Classify(err)
	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package authcore

import (
	"errors"
	"fmt"

	"github.com/campverse/authcore/jwt"
)

var (
	// ErrNoCredential is returned when a request carries no bearer token.
	ErrNoCredential = errors.New("no credential")
	// ErrInvalidSignature covers every verification failure other than expiry.
	ErrInvalidSignature = errors.New("invalid token")
	// ErrMalformed wraps ErrInvalidSignature for tokens that do not parse.
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalidSignature)
	ErrExpired   = errors.New("token expired")
	ErrRevoked   = errors.New("session revoked")
	// ErrSessionNotFound is returned for missing, inactive or foreign sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidRefresh is the uniform refresh failure.
	ErrInvalidRefresh = errors.New("invalid or expired refresh token")
	// ErrSubjectMissing is returned when the token subject no longer exists or
	// is not active.
	ErrSubjectMissing     = errors.New("subject not found or inactive")
	ErrStorageUnavailable = errors.New("session storage unavailable")
	ErrCacheUnavailable   = errors.New("revocation cache unavailable")
	ErrForbidden          = errors.New("forbidden")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidConfig      = errors.New("invalid configuration")
	// ErrEngineNotReady is returned when an optional collaborator was not
	// configured on the Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// TokenError carries the verification reason alongside the sentinel so the
// HTTP layer can surface it without exposing parser internals.
type TokenError struct {
	Reason jwt.Reason
}

func (e *TokenError) Error() string { return e.Unwrap().Error() + " (" + e.Reason.String() + ")" }

// Unwrap yields ErrExpired, ErrMalformed or ErrInvalidSignature.
func (e *TokenError) Unwrap() error {
	switch e.Reason {
	case jwt.ReasonExpired:
		return ErrExpired
	case jwt.ReasonMalformed:
		return ErrMalformed
	default:
		return ErrInvalidSignature
	}
}

func tokenError(res jwt.Result) error {
	return &TokenError{Reason: res.Reason}
}

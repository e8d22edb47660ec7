// Package loginhistory is the append-only ledger of authentication attempts
// and the heuristics computed over it.
package loginhistory

import (
	"errors"
	"time"

	"github.com/campverse/authcore/device"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func (s Status) Valid() bool { return s == StatusSuccess || s == StatusFailed }

type FailReason string

const (
	FailInvalidPassword  FailReason = "invalid_password"
	FailInvalidEmail     FailReason = "invalid_email"
	FailAccountLocked    FailReason = "account_locked"
	FailAccountDisabled  FailReason = "account_disabled"
	FailEmailNotVerified FailReason = "email_not_verified"
	FailTooManyAttempts  FailReason = "too_many_attempts"
	FailInvalidToken     FailReason = "invalid_token"
	FailExpiredToken     FailReason = "expired_token"
	FailOAuthError       FailReason = "oauth_error"
	FailUnknown          FailReason = "unknown"
)

type AuthMethod string

const (
	MethodEmail        AuthMethod = "email"
	MethodGoogle       AuthMethod = "google"
	MethodGitHub       AuthMethod = "github"
	MethodLinkedIn     AuthMethod = "linkedin"
	MethodMagicLink    AuthMethod = "magic_link"
	MethodRefreshToken AuthMethod = "refresh_token"
)

func (m AuthMethod) Valid() bool {
	switch m {
	case MethodEmail, MethodGoogle, MethodGitHub, MethodLinkedIn, MethodMagicLink, MethodRefreshToken:
		return true
	}
	return false
}

var (
	ErrUnavailable  = errors.New("login history unavailable")
	ErrInvalidEntry = errors.New("invalid login history entry")
)

// Entry is one recorded attempt. UserID may be empty for failures against
// unknown identifiers.
type Entry struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId,omitempty"`
	Status     Status      `json:"status"`
	FailReason FailReason  `json:"failReason,omitempty"`
	AuthMethod AuthMethod  `json:"authMethod"`
	Device     device.Info `json:"device"`
	SessionID  string      `json:"sessionId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

func (e Entry) validate() error {
	if !e.Status.Valid() || !e.AuthMethod.Valid() {
		return ErrInvalidEntry
	}
	if e.Status == StatusFailed && e.FailReason == "" {
		return ErrInvalidEntry
	}
	return nil
}

// Query selects a page of a user's history, newest first.
type Query struct {
	Limit  int
	Offset int
	Status Status
}

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Normalize applies the default and maximum page size.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if !q.Status.Valid() {
		q.Status = ""
	}
	return q
}

// FailureKey selects failed attempts by user or by client address.
type FailureKey struct {
	UserID string
	IP     string
}

type Stats struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

package authcore

import (
	"context"
	"slices"
	"time"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/session"
)

// SubjectStatus is the account lifecycle state of a subject.
type SubjectStatus string

const (
	StatusActive              SubjectStatus = "active"
	StatusDisabled            SubjectStatus = "disabled"
	StatusLocked              SubjectStatus = "locked"
	StatusDeleted             SubjectStatus = "deleted"
	StatusPendingVerification SubjectStatus = "pending_verification"
)

// Subject is the user a token is issued for.
type Subject struct {
	ID     string
	Roles  []string
	Name   string
	Email  string
	Status SubjectStatus
}

// Active reports whether the subject may hold tokens. An empty status is
// treated as active so simple providers need not set it.
func (s Subject) Active() bool {
	return s.Status == "" || s.Status == StatusActive
}

// SubjectProvider resolves the current state of a subject. Implementations
// return an error wrapping ErrSubjectMissing when the id is unknown; any other
// error is treated as a storage outage.
type SubjectProvider interface {
	LookupSubject(ctx context.Context, userID string) (Subject, error)
}

// CredentialProvider backs the optional password login. It returns the
// subject and its PHC-encoded password hash, or ErrSubjectMissing.
type CredentialProvider interface {
	LookupCredentials(ctx context.Context, identifier string) (Subject, string, error)
}

// Identity is attached to the request context by the auth gate.
type Identity struct {
	UserID    string
	Roles     []string
	Name      string
	Email     string
	SessionID string
	// Token is the presented bearer token, kept for logout blacklisting.
	Token     string
	ExpiresAt time.Time
}

// HasRole reports whether the identity holds any of roles.
func (i *Identity) HasRole(roles ...string) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if slices.Contains(i.Roles, r) {
			return true
		}
	}
	return false
}

// TokenPair is returned by issuance and rotation. RefreshToken is the raw
// credential; it is never stored server side.
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
	Session         *session.Session
}

type AuthMethod = loginhistory.AuthMethod

const (
	MethodEmail        = loginhistory.MethodEmail
	MethodGoogle       = loginhistory.MethodGoogle
	MethodGitHub       = loginhistory.MethodGitHub
	MethodLinkedIn     = loginhistory.MethodLinkedIn
	MethodMagicLink    = loginhistory.MethodMagicLink
	MethodRefreshToken = loginhistory.MethodRefreshToken
)

// Attempt is a login attempt handed to LogAttempt.
type Attempt struct {
	UserID     string
	Success    bool
	FailReason loginhistory.FailReason
	Method     AuthMethod
	Device     device.Info
	SessionID  string
}

// SessionView is a session as presented to its owner.
type SessionView struct {
	ID             string      `json:"id"`
	Device         device.Info `json:"device"`
	CreatedAt      time.Time   `json:"createdAt"`
	LastActivityAt time.Time   `json:"lastActivity"`
	ExpiresAt      time.Time   `json:"expiresAt"`
	IsCurrent      bool        `json:"isCurrent"`
}

// HistoryPage is one page of the login ledger.
type HistoryPage struct {
	Entries []loginhistory.Entry `json:"history"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	HasMore bool                 `json:"hasMore"`
}

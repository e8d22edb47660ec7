package session

import (
	"time"

	"github.com/campverse/authcore/device"
)

// RevokeReason records why a session stopped being active.
type RevokeReason string

const (
	ReasonLogout         RevokeReason = "logout"
	ReasonPasswordChange RevokeReason = "password_change"
	ReasonSecurity       RevokeReason = "security"
	ReasonAdminAction    RevokeReason = "admin_action"
	ReasonExpired        RevokeReason = "expired"
	ReasonManual         RevokeReason = "manual"
)

func (r RevokeReason) Valid() bool {
	switch r {
	case ReasonLogout, ReasonPasswordChange, ReasonSecurity, ReasonAdminAction, ReasonExpired, ReasonManual:
		return true
	default:
		return false
	}
}

// Session is one device grant. RefreshHash is the hex sha256 of the raw
// refresh credential; the raw value is never stored.
type Session struct {
	ID             string
	UserID         string
	RefreshHash    string
	Device         device.Info
	IsActive       bool
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
	RevokedBy      string
	RevokeReason   RevokeReason
}

// Usable reports whether the session can still mint tokens at now.
func (s *Session) Usable(now time.Time) bool {
	return s != nil && s.IsActive && now.Before(s.ExpiresAt)
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.RevokedAt != nil {
		t := *s.RevokedAt
		cp.RevokedAt = &t
	}
	return &cp
}

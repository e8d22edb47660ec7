package session

import (
	"context"
	"errors"
	"time"

	"github.com/campverse/authcore/device"
)

var (
	// ErrNotFound covers missing, revoked and expired sessions.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable wraps durable-layer failures.
	ErrUnavailable = errors.New("session store unavailable")
	// ErrInvalidReason rejects unknown revoke reasons.
	ErrInvalidReason = errors.New("invalid revoke reason")
)

// Store is the durable session record.
type Store interface {
	// Create revokes the active session with the same device signature, then
	// inserts a new one. The raw refresh credential is returned exactly once.
	Create(ctx context.Context, userID string, info device.Info, ttl time.Duration) (*Session, string, error)
	FindByRefresh(ctx context.Context, rawRefresh string) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	// Rotate swaps oldHash for newHash and extends expiry to now+ttl in one
	// update. Only a usable session holding oldHash matches.
	Rotate(ctx context.Context, oldHash, newHash string, ttl time.Duration) (*Session, error)
	Touch(ctx context.Context, sessionID string) error
	// Revoke returns ErrNotFound when the session is missing or already inactive.
	Revoke(ctx context.Context, sessionID string, reason RevokeReason, revokedBy string) (*Session, error)
	// RevokeAllExcept revokes every active session of userID other than keepID
	// and returns the revoked ids. An empty keepID revokes all.
	RevokeAllExcept(ctx context.Context, userID, keepID string, reason RevokeReason, revokedBy string) ([]string, error)
	RevokeAll(ctx context.Context, userID string, reason RevokeReason, revokedBy string) ([]string, error)
	// ListActive is ordered by LastActivityAt, most recent first.
	ListActive(ctx context.Context, userID string) ([]Session, error)
	// SweepExpired deletes expired sessions and revoked sessions older than
	// revokedRetention. It has no authorization effect.
	SweepExpired(ctx context.Context, revokedRetention time.Duration) (int64, error)
}

// Clock supplies the current time; tests override it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// Package revocation is the best-effort blacklist consulted by the auth gate
// before a bearer token's natural expiry.
//
// A miss is not proof of validity; it only means no explicit revocation was
// recorded for the key within its TTL. Entries never outlive the access-token
// lifetime passed by the caller.
package revocation

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps cache transport failures.
var ErrUnavailable = errors.New("revocation cache unavailable")

// Cache records revoked sessions and individual tokens.
type Cache interface {
	BlacklistSession(ctx context.Context, sessionID string, ttl time.Duration) error
	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error
	// IsBlacklisted checks the session key and, when token is non-empty, the
	// token key in one round trip.
	IsBlacklisted(ctx context.Context, sessionID, token string) (bool, error)
}

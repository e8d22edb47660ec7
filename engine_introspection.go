package authcore

import (
	"context"
	"time"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable bool          `json:"redisAvailable"`
	RedisLatency   time.Duration `json:"redisLatencyNs"`
	AuditDropped   uint64        `json:"auditDropped"`
	LedgerDropped  uint64        `json:"ledgerDropped"`
}

// Health pings Redis. A Redis outage degrades revocation and throttling but
// does not stop token validation unless the engine runs fail-closed.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil {
		return HealthStatus{}
	}
	st := HealthStatus{
		AuditDropped:  e.AuditDropped(),
		LedgerDropped: e.LedgerDropped(),
	}
	if e.redis == nil {
		return st
	}
	start := time.Now()
	err := e.redis.Ping(ctx).Err()
	st.RedisLatency = time.Since(start)
	st.RedisAvailable = err == nil
	return st
}

// ActiveSessionCount returns how many usable sessions userID holds.
func (e *Engine) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, ErrSubjectMissing
	}
	sessions, err := e.sessions.ListActive(ctx, userID)
	if err != nil {
		return 0, storeError(err)
	}
	return len(sessions), nil
}

// LoginAttempts returns the failed-login counter for identifier in the
// current window.
func (e *Engine) LoginAttempts(ctx context.Context, identifier string) (int, error) {
	if e.limiter == nil {
		return 0, ErrEngineNotReady
	}
	if identifier == "" {
		return 0, nil
	}
	n, err := e.limiter.LoginFailures(ctx, identifier)
	if err != nil {
		return 0, ErrCacheUnavailable
	}
	return n, nil
}

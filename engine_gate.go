package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Authenticate runs the auth gate for a bearer token: verify, check the
// revocation cache, re-resolve the subject. The returned identity carries
// the subject's current roles, not the ones embedded at issuance.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	token = strings.TrimSpace(token)
	if token == "" {
		e.metricInc(MetricAuthFailure)
		return nil, ErrNoCredential
	}

	res := e.jwt.Verify(token)
	if !res.Valid() {
		e.metricInc(MetricAuthFailure)
		e.log.Debug("token rejected", zap.Stringer("reason", res.Reason), zap.NamedError("detail", res.Err))
		return nil, tokenError(res)
	}
	claims := res.Claims

	revoked, err := e.revocation.IsBlacklisted(ctx, claims.SessionID, token)
	switch {
	case err != nil:
		e.metricInc(MetricRevocationCacheError)
		if e.config.Revocation.FailClosed {
			e.metricInc(MetricAuthFailure)
			e.emitAudit(ctx, auditEventCacheDegraded, false, claims.Subject, claims.SessionID, ErrCacheUnavailable, reasonMeta("fail_closed"))
			return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
		}
		e.log.Warn("revocation cache unavailable, continuing without revocation check",
			zap.String("session_id", claims.SessionID), zap.Error(err))
	case revoked:
		e.metricInc(MetricAuthRevoked)
		e.emitAudit(ctx, auditEventAuthRevoked, false, claims.Subject, claims.SessionID, ErrRevoked, nil)
		return nil, ErrRevoked
	}

	subject, err := e.lookupSubject(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrSubjectMissing) {
			e.metricInc(MetricAuthSubjectMissing)
		} else {
			e.log.Error("subject lookup failed", zap.String("user_id", claims.Subject), zap.Error(err))
		}
		e.metricInc(MetricAuthFailure)
		return nil, err
	}

	e.metricInc(MetricAuthSuccess)
	id := &Identity{
		UserID:    subject.ID,
		Roles:     subject.Roles,
		Name:      subject.Name,
		Email:     subject.Email,
		SessionID: claims.SessionID,
		Token:     token,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

package authcore

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/campverse/authcore/internal"
	"github.com/campverse/authcore/internal/rate"
	"github.com/campverse/authcore/session"
)

// Rotate exchanges a refresh credential for a new access token and a new
// credential bound to the same session. The presented credential becomes
// unusable. Every failure other than a storage outage or the throttle
// returns ErrInvalidRefresh.
func (e *Engine) Rotate(ctx context.Context, rawRefresh string) (*TokenPair, error) {
	rawRefresh = strings.TrimSpace(rawRefresh)
	if rawRefresh == "" {
		return nil, e.refreshFailed(ctx, "", "", "empty")
	}
	oldHash := internal.HashString(rawRefresh)

	if err := e.limiter.CheckRefresh(ctx, refreshThrottleKey(clientIPFromContext(ctx), oldHash)); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricRefreshRateLimited)
			e.emitAudit(ctx, auditEventRefreshRateLimited, false, "", "", ErrRateLimited, nil)
			return nil, ErrRateLimited
		}
		e.log.Warn("refresh throttle unavailable", zap.Error(err))
	}

	sess, err := e.sessions.FindByRefresh(ctx, rawRefresh)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, e.refreshFailed(ctx, "", "", "not_found")
		}
		return nil, e.refreshUnavailable(ctx, err)
	}

	subject, err := e.lookupSubject(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrSubjectMissing) {
			return nil, e.refreshFailed(ctx, sess.UserID, sess.ID, "subject_missing")
		}
		return nil, e.refreshUnavailable(ctx, err)
	}

	next, err := internal.NewRefreshSecret()
	if err != nil {
		e.log.Error("refresh secret generation failed", zap.Error(err))
		return nil, e.refreshFailed(ctx, sess.UserID, sess.ID, "secret_generation")
	}

	rotated, err := e.sessions.Rotate(ctx, oldHash, internal.HashString(next), e.config.Session.RefreshTTL)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			// Lost a concurrent rotation or the session was revoked meanwhile.
			return nil, e.refreshFailed(ctx, sess.UserID, sess.ID, "rotate_conflict")
		}
		return nil, e.refreshUnavailable(ctx, err)
	}

	access, exp, err := e.mintAccess(subject, rotated.ID)
	if err != nil {
		e.log.Error("access token signing failed", zap.String("session_id", rotated.ID), zap.Error(err))
		return nil, e.refreshFailed(ctx, sess.UserID, sess.ID, "issue_access_failed")
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, rotated.UserID, rotated.ID, nil, nil)

	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    next,
		AccessExpiresAt: exp,
		Session:         rotated,
	}, nil
}

func (e *Engine) refreshFailed(ctx context.Context, userID, sessionID, reason string) error {
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshInvalid, false, userID, sessionID, ErrInvalidRefresh, reasonMeta(reason))
	return ErrInvalidRefresh
}

func (e *Engine) refreshUnavailable(ctx context.Context, err error) error {
	e.metricInc(MetricRefreshFailure)
	e.log.Error("refresh storage failure", zap.Error(err))
	e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrStorageUnavailable, reasonMeta("storage"))
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return storeError(err)
}

// refreshThrottleKey scopes the counter to the client address and a prefix
// of the presented credential's hash.
func refreshThrottleKey(ip, hash string) string {
	if ip == "" {
		ip = "unknown"
	}
	return ip + ":" + hash[:16]
}

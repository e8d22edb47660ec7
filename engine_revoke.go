package authcore

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/campverse/authcore/session"
)

// Logout revokes the identity's current session and blacklists it together
// with the presented token. A second logout of the same session returns
// ErrSessionNotFound.
func (e *Engine) Logout(ctx context.Context, id *Identity) error {
	if id == nil || id.SessionID == "" {
		return ErrNoCredential
	}

	if _, err := e.sessions.Revoke(ctx, id.SessionID, session.ReasonLogout, id.UserID); err != nil {
		return e.revokeFailed(ctx, id.UserID, id.SessionID, err)
	}

	e.blacklistSessions(ctx, id.SessionID)
	if id.Token != "" {
		if err := e.revocation.BlacklistToken(ctx, id.Token, e.config.JWT.AccessTTL); err != nil {
			e.metricInc(MetricRevocationCacheError)
			e.log.Warn("token blacklist write failed", zap.String("session_id", id.SessionID), zap.Error(err))
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogoutSession, true, id.UserID, id.SessionID, nil, nil)
	return nil
}

// RevokeSession revokes one of userID's own active sessions. Sessions that
// belong to someone else are reported as not found.
func (e *Engine) RevokeSession(ctx context.Context, userID, sessionID string) error {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return e.revokeFailed(ctx, userID, sessionID, err)
	}
	if sess.UserID != userID || !sess.IsActive {
		return e.revokeFailed(ctx, userID, sessionID, session.ErrNotFound)
	}

	if _, err := e.sessions.Revoke(ctx, sessionID, session.ReasonLogout, userID); err != nil {
		return e.revokeFailed(ctx, userID, sessionID, err)
	}
	e.blacklistSessions(ctx, sessionID)

	e.metricInc(MetricSessionRevoked)
	e.emitAudit(ctx, auditEventRevokeSession, true, userID, sessionID, nil, nil)
	return nil
}

// AdminRevokeSession revokes any session with reason admin_action. Role
// checks are the caller's job.
func (e *Engine) AdminRevokeSession(ctx context.Context, adminID, sessionID string) (*session.Session, error) {
	sess, err := e.sessions.Revoke(ctx, sessionID, session.ReasonAdminAction, adminID)
	if err != nil {
		return nil, e.revokeFailed(ctx, adminID, sessionID, err)
	}
	e.blacklistSessions(ctx, sessionID)

	e.metricInc(MetricAdminRevoke)
	e.emitAudit(ctx, auditEventAdminRevoke, true, adminID, sessionID, nil, func() map[string]string {
		return map[string]string{"target_user_id": sess.UserID}
	})
	return sess, nil
}

// RevokeAllSessions revokes every active session of userID except
// keepSessionID (empty keeps none) and returns how many were revoked. An
// empty reason means logout, or security when a session is kept. Password
// changes pass session.ReasonPasswordChange.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID, keepSessionID string, reason session.RevokeReason, revokedBy string) (int, error) {
	if reason == "" {
		reason = session.ReasonLogout
		if keepSessionID != "" {
			reason = session.ReasonSecurity
		}
	}
	if revokedBy == "" {
		revokedBy = userID
	}

	ids, err := e.sessions.RevokeAllExcept(ctx, userID, keepSessionID, reason, revokedBy)
	if err != nil {
		return 0, e.revokeFailed(ctx, userID, "", err)
	}
	e.blacklistSessions(ctx, ids...)

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, keepSessionID, nil, func() map[string]string {
		return map[string]string{
			"reason":  string(reason),
			"revoked": strconv.Itoa(len(ids)),
		}
	})
	return len(ids), nil
}

// ListSessions returns userID's active sessions, most recently used first,
// flagging currentSessionID.
func (e *Engine) ListSessions(ctx context.Context, userID, currentSessionID string) ([]SessionView, error) {
	sessions, err := e.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, storeError(err)
	}
	out := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionView{
			ID:             s.ID,
			Device:         s.Device,
			CreatedAt:      s.CreatedAt,
			LastActivityAt: s.LastActivityAt,
			ExpiresAt:      s.ExpiresAt,
			IsCurrent:      s.ID == currentSessionID,
		})
	}
	return out, nil
}

// blacklistSessions never fails the caller: the durable revoke already
// happened.
func (e *Engine) blacklistSessions(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := e.revocation.BlacklistSession(ctx, id, e.config.JWT.AccessTTL); err != nil {
			e.metricInc(MetricRevocationCacheError)
			e.log.Warn("session blacklist write failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}

func (e *Engine) revokeFailed(ctx context.Context, userID, sessionID string, err error) error {
	mapped := storeError(err)
	if !errors.Is(mapped, ErrSessionNotFound) {
		e.log.Error("session revoke failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	e.emitAudit(ctx, auditEventRevokeSession, false, userID, sessionID, mapped, nil)
	return mapped
}

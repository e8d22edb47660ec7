package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/jwt"
	"github.com/campverse/authcore/session"
)

// IssueAccessToken mints a bearer token for subject bound to sessionID. It
// does not touch storage.
func (e *Engine) IssueAccessToken(subject Subject, sessionID string) (string, error) {
	token, _, err := e.mintAccess(subject, sessionID)
	return token, err
}

func (e *Engine) mintAccess(subject Subject, sessionID string) (string, time.Time, error) {
	return e.jwt.Create(jwt.AccessInput{
		Subject:   subject.ID,
		Roles:     subject.Roles,
		Name:      subject.Name,
		Email:     subject.Email,
		SessionID: sessionID,
	})
}

// IssueTokenPair creates a session for an already authenticated subject and
// returns its first access token and raw refresh credential. method records
// how the subject proved their identity.
//
// When the session cannot be stored no token is minted and no ledger entry
// is written.
func (e *Engine) IssueTokenPair(ctx context.Context, subject Subject, info device.Info, method AuthMethod) (*TokenPair, error) {
	if subject.ID == "" || !subject.Active() {
		return nil, ErrSubjectMissing
	}
	if !method.Valid() {
		return nil, fmt.Errorf("unknown auth method %q", method)
	}
	info = info.Normalize()

	sess, raw, err := e.sessions.Create(ctx, subject.ID, info, e.config.Session.RefreshTTL)
	if err != nil {
		e.metricInc(MetricSessionCreateFailure)
		e.log.Error("session create failed", zap.String("user_id", subject.ID), zap.Error(err))
		e.emitAudit(ctx, auditEventSessionCreateFail, false, subject.ID, "", ErrStorageUnavailable, nil)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	access, exp, err := e.mintAccess(subject, sess.ID)
	if err != nil {
		e.log.Error("access token signing failed", zap.String("session_id", sess.ID), zap.Error(err))
		if _, revokeErr := e.sessions.Revoke(ctx, sess.ID, session.ReasonSecurity, ""); revokeErr != nil && !errors.Is(revokeErr, session.ErrNotFound) {
			e.log.Warn("orphan session revoke failed", zap.String("session_id", sess.ID), zap.Error(revokeErr))
		}
		return nil, err
	}

	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventSessionCreated, true, subject.ID, sess.ID, nil, func() map[string]string {
		return map[string]string{
			"method": string(method),
			"device": info.Label(),
		}
	})
	_ = e.LogAttempt(ctx, Attempt{
		UserID:    subject.ID,
		Success:   true,
		Method:    method,
		Device:    info,
		SessionID: sess.ID,
	})

	return &TokenPair{
		AccessToken:     access,
		RefreshToken:    raw,
		AccessExpiresAt: exp,
		Session:         sess,
	}, nil
}

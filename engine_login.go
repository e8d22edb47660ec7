package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal/rate"
	"github.com/campverse/authcore/loginhistory"
)

// Login verifies an email and password against the CredentialProvider and
// issues a token pair. Unknown identifiers, wrong passwords and inactive
// accounts all return ErrInvalidCredentials; the ledger records which.
func (e *Engine) Login(ctx context.Context, identifier, pass string, info device.Info) (*TokenPair, error) {
	if e.credentials == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	info = info.Normalize()

	if err := e.limiter.CheckLogin(ctx, identifier, info.IP); err != nil {
		if errors.Is(err, rate.ErrRateLimited) {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", "", ErrRateLimited, nil)
			_ = e.LogAttempt(ctx, Attempt{Method: MethodEmail, Device: info, FailReason: loginhistory.FailTooManyAttempts})
			return nil, ErrRateLimited
		}
		e.log.Warn("login limiter unavailable", zap.Error(err))
	}

	subject, hash, err := e.credentials.LookupCredentials(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrSubjectMissing) {
			e.hasher.VerifyDummy(pass)
			return nil, e.loginFailed(ctx, "", identifier, info, loginhistory.FailInvalidEmail)
		}
		e.log.Error("credential lookup failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	ok, err := e.hasher.Verify(pass, hash)
	if err != nil {
		e.log.Error("stored password hash unreadable", zap.String("user_id", subject.ID), zap.Error(err))
	}
	if !ok {
		return nil, e.loginFailed(ctx, subject.ID, identifier, info, loginhistory.FailInvalidPassword)
	}

	if !subject.Active() {
		return nil, e.loginFailed(ctx, subject.ID, identifier, info, statusFailReason(subject.Status))
	}

	if err := e.limiter.ResetLogin(ctx, identifier); err != nil {
		e.log.Warn("login limiter reset failed", zap.Error(err))
	}

	pair, err := e.IssueTokenPair(ctx, subject, info, MethodEmail)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, subject.ID, pair.Session.ID, nil, nil)
	return pair, nil
}

func (e *Engine) loginFailed(ctx context.Context, userID, identifier string, info device.Info, reason loginhistory.FailReason) error {
	if err := e.limiter.IncrementLogin(ctx, identifier, info.IP); err != nil {
		e.log.Warn("login limiter increment failed", zap.Error(err))
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, "", ErrInvalidCredentials, reasonMeta(string(reason)))
	_ = e.LogAttempt(ctx, Attempt{
		UserID:     userID,
		Method:     MethodEmail,
		Device:     info,
		FailReason: reason,
	})
	return ErrInvalidCredentials
}

func statusFailReason(s SubjectStatus) loginhistory.FailReason {
	switch s {
	case StatusLocked:
		return loginhistory.FailAccountLocked
	case StatusPendingVerification:
		return loginhistory.FailEmailNotVerified
	default:
		return loginhistory.FailAccountDisabled
	}
}

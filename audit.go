package authcore

import (
	"context"
	"errors"

	"github.com/campverse/authcore/internal/audit"
)

type AuditEvent = audit.Event

type AuditSink = audit.Sink

type NoOpSink = audit.NoOpSink

const (
	auditEventSessionCreated     = "session_created"
	auditEventSessionCreateFail  = "session_create_failure"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRefreshRateLimited = "refresh_rate_limited"
	auditEventAuthRevoked        = "auth_revoked"
	auditEventCacheDegraded      = "revocation_cache_degraded"
	auditEventLogoutSession      = "logout_session"
	auditEventRevokeSession      = "revoke_session"
	auditEventLogoutAll          = "logout_all"
	auditEventAdminRevoke        = "admin_revoke"
)

type AuditErrorCode string

const (
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrExpired            AuditErrorCode = "expired"
	auditErrRevoked            AuditErrorCode = "revoked"
	auditErrSessionNotFound    AuditErrorCode = "session_not_found"
	auditErrSubjectMissing     AuditErrorCode = "subject_missing"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrForbidden          AuditErrorCode = "forbidden"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func reasonMeta(reason string) func() map[string]string {
	return func() map[string]string {
		return map[string]string{"reason": reason}
	}
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrExpired):
		return auditErrExpired
	case errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrInvalidRefresh),
		errors.Is(err, ErrNoCredential):
		return auditErrInvalidToken
	case errors.Is(err, ErrRevoked):
		return auditErrRevoked
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSubjectMissing):
		return auditErrSubjectMissing
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrForbidden):
		return auditErrForbidden
	case errors.Is(err, ErrStorageUnavailable),
		errors.Is(err, ErrCacheUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

package authcore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	return &captureSink{events: make(chan AuditEvent, buffer)}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// next returns the first captured event of eventType, skipping others.
func (s *captureSink) next(t *testing.T, eventType string) AuditEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-s.events:
			if ev.EventType == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s audit event received", eventType)
			return AuditEvent{}
		}
	}
}

func withAudit(sink AuditSink) envOption {
	return func(cfg *Config, b *Builder) {
		cfg.Audit.Enabled = true
		cfg.Audit.BufferSize = 64
		cfg.Audit.DropIfFull = true
		b.WithAuditSink(sink)
	}
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	sink := &countingSink{}
	env := newTestEnv(t, func(_ *Config, b *Builder) {
		b.WithAuditSink(sink)
	})

	_, err := env.engine.Rotate(context.Background(), "bogus")
	require.ErrorIs(t, err, ErrInvalidRefresh)
	env.engine.Close()

	assert.Zero(t, sink.count.Load())
}

func TestAuditSessionCreatedCarriesClientIP(t *testing.T) {
	sink := newCaptureSink(16)
	env := newTestEnv(t, withAudit(sink))
	ctx := WithClientIP(context.Background(), "198.51.100.33")

	pair, err := env.engine.IssueTokenPair(ctx, env.subject(t, "u1"), laptop(), MethodGoogle)
	require.NoError(t, err)

	ev := sink.next(t, auditEventSessionCreated)
	assert.True(t, ev.Success)
	assert.Equal(t, "u1", ev.UserID)
	assert.Equal(t, pair.Session.ID, ev.SessionID)
	assert.Equal(t, "198.51.100.33", ev.IP)
	assert.Equal(t, "google", ev.Metadata["method"])
}

func TestAuditRefreshFailureNeverLeaksCredential(t *testing.T) {
	sink := newCaptureSink(16)
	env := newTestEnv(t, withAudit(sink))

	const secret = "super-secret-refresh-value"
	_, err := env.engine.Rotate(context.Background(), secret)
	require.ErrorIs(t, err, ErrInvalidRefresh)

	ev := sink.next(t, auditEventRefreshInvalid)
	assert.False(t, ev.Success)
	assert.Equal(t, string(auditErrInvalidToken), ev.Error)
	assert.Equal(t, "not_found", ev.Metadata["reason"])
	for _, v := range ev.Metadata {
		assert.NotContains(t, v, secret)
	}
}

func TestAuditRevokedAccess(t *testing.T) {
	sink := newCaptureSink(32)
	env := newTestEnv(t, withAudit(sink))
	ctx := context.Background()

	pair, err := env.engine.IssueTokenPair(ctx, env.subject(t, "u1"), laptop(), MethodEmail)
	require.NoError(t, err)
	_, err = env.engine.AdminRevokeSession(ctx, "admin-1", pair.Session.ID)
	require.NoError(t, err)

	ev := sink.next(t, auditEventAdminRevoke)
	assert.Equal(t, "admin-1", ev.UserID)
	assert.Equal(t, "u1", ev.Metadata["target_user_id"])

	_, err = env.engine.Authenticate(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrRevoked)
	ev = sink.next(t, auditEventAuthRevoked)
	assert.Equal(t, string(auditErrRevoked), ev.Error)
}

func TestAuditErrorCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{ErrExpired, auditErrExpired},
		{ErrMalformed, auditErrInvalidToken},
		{ErrInvalidRefresh, auditErrInvalidToken},
		{ErrRevoked, auditErrRevoked},
		{ErrSessionNotFound, auditErrSessionNotFound},
		{ErrSubjectMissing, auditErrSubjectMissing},
		{ErrRateLimited, auditErrRateLimited},
		{ErrCacheUnavailable, auditErrUnavailable},
		{errors.New("boom"), auditErrInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, auditErrorCode(tt.err), "err=%v", tt.err)
	}
}

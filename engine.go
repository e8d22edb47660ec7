package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campverse/authcore/internal/audit"
	"github.com/campverse/authcore/internal/rate"
	"github.com/campverse/authcore/jwt"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/password"
	"github.com/campverse/authcore/revocation"
	"github.com/campverse/authcore/session"
)

// Engine coordinates token issuance, rotation, the auth gate, revocation and
// the login ledger. Build it with New().…Build(); it is safe for concurrent
// use.
type Engine struct {
	config      Config
	jwt         *jwt.Manager
	sessions    session.Store
	revocation  revocation.Cache
	ledger      loginhistory.Ledger
	recorder    *loginhistory.Recorder
	detector    *loginhistory.Detector
	limiter     *rate.Limiter
	redis       redis.UniversalClient
	subjects    SubjectProvider
	credentials CredentialProvider
	hasher      *password.Hasher
	audit       *audit.Dispatcher
	metrics     *Metrics
	log         *zap.Logger
	now         func() time.Time
}

// Close drains the ledger recorder and the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.recorder != nil {
		e.recorder.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// LedgerDropped counts ledger entries discarded because the queue was full.
func (e *Engine) LedgerDropped() uint64 {
	if e == nil || e.recorder == nil {
		return 0
	}
	return e.recorder.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Metrics exposes the counters so background workers can record into them.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

func (e *Engine) AccessTTL() time.Duration  { return e.config.JWT.AccessTTL }
func (e *Engine) RefreshTTL() time.Duration { return e.config.Session.RefreshTTL }

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) lookupSubject(ctx context.Context, userID string) (Subject, error) {
	s, err := e.subjects.LookupSubject(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSubjectMissing) {
			return Subject{}, ErrSubjectMissing
		}
		return Subject{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if s.ID == "" {
		s.ID = userID
	}
	if !s.Active() {
		return Subject{}, ErrSubjectMissing
	}
	return s, nil
}

// storeError translates session store failures into the public taxonomy.
func storeError(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return ErrSessionNotFound
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

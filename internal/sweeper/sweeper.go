// Package sweeper deletes expired sessions and aged ledger entries on a
// ticker. Sweeping only reclaims storage; revocation never depends on it.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campverse/authcore"
	"github.com/campverse/authcore/loginhistory"
	"github.com/campverse/authcore/session"
)

type Config struct {
	Interval         time.Duration
	RevokedRetention time.Duration
	LedgerRetention  time.Duration
}

type Sweeper struct {
	log      *zap.Logger
	sessions session.Store
	ledger   loginhistory.Ledger
	metrics  *authcore.Metrics
	cfg      Config
	now      func() time.Time
}

// New builds a Sweeper. metrics may be nil.
func New(log *zap.Logger, sessions session.Store, ledger loginhistory.Ledger, metrics *authcore.Metrics, cfg Config) *Sweeper {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{
		log:      log.With(zap.String("component", "sweeper")),
		sessions: sessions,
		ledger:   ledger,
		metrics:  metrics,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Result counts rows removed by one pass.
type Result struct {
	Sessions int64
	Ledger   int64
}

// SweepOnce runs one pass. A failure in one table does not skip the other;
// the first error is returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	var (
		res      Result
		firstErr error
	)

	n, err := s.sessions.SweepExpired(ctx, s.cfg.RevokedRetention)
	if err != nil {
		s.log.Warn("session sweep failed", zap.Error(err))
		firstErr = err
	} else {
		res.Sessions = n
		s.count(authcore.MetricSweepSessions, n)
	}

	if s.ledger != nil && s.cfg.LedgerRetention > 0 {
		n, err := s.ledger.Purge(ctx, s.now().Add(-s.cfg.LedgerRetention))
		if err != nil {
			s.log.Warn("ledger purge failed", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		} else {
			res.Ledger = n
			s.count(authcore.MetricSweepLedger, n)
		}
	}

	if res.Sessions > 0 || res.Ledger > 0 {
		s.log.Info("sweep complete", zap.Int64("sessions", res.Sessions), zap.Int64("ledger", res.Ledger))
	}
	return res, firstErr
}

// Run sweeps immediately, then every Interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	_, _ = s.SweepOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}

func (s *Sweeper) count(id authcore.MetricID, n int64) {
	if s.metrics == nil || n <= 0 {
		return
	}
	s.metrics.Add(id, uint64(n))
}

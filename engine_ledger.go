package authcore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campverse/authcore/loginhistory"
)

// LogAttempt queues a ledger entry. It never waits on storage; a full queue
// drops the entry. Only malformed attempts return an error.
func (e *Engine) LogAttempt(ctx context.Context, a Attempt) error {
	entry := loginhistory.Entry{
		UserID:     a.UserID,
		Status:     loginhistory.StatusSuccess,
		AuthMethod: a.Method,
		Device:     a.Device,
		SessionID:  a.SessionID,
		Timestamp:  e.now().UTC(),
	}
	if !a.Success {
		entry.Status = loginhistory.StatusFailed
		entry.FailReason = a.FailReason
		if entry.FailReason == "" {
			entry.FailReason = loginhistory.FailUnknown
		}
		entry.SessionID = ""
	}

	if err := e.recorder.Record(entry); err != nil {
		e.metricInc(MetricLedgerRejected)
		e.log.Warn("login attempt rejected", zap.String("user_id", a.UserID), zap.Error(err))
		return err
	}
	e.metricInc(MetricLedgerEnqueued)
	return nil
}

// LoginHistory pages through userID's attempts, newest first.
func (e *Engine) LoginHistory(ctx context.Context, userID string, q loginhistory.Query) (*HistoryPage, error) {
	q = q.Normalize()
	entries, total, err := e.ledger.History(ctx, userID, q)
	if err != nil {
		e.log.Error("login history query failed", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if entries == nil {
		entries = []loginhistory.Entry{}
	}
	return &HistoryPage{
		Entries: entries,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
		HasMore: q.Offset+len(entries) < total,
	}, nil
}

// SecurityCheck evaluates recent successful logins for anomalies.
func (e *Engine) SecurityCheck(ctx context.Context, userID string) (loginhistory.Report, error) {
	report, err := e.detector.SuspiciousActivity(ctx, userID)
	if err != nil {
		e.log.Error("security check failed", zap.String("user_id", userID), zap.Error(err))
		return loginhistory.Report{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return report, nil
}

// LoginStats counts attempts over the last days (default 30).
func (e *Engine) LoginStats(ctx context.Context, userID string, days int) (loginhistory.Stats, error) {
	stats, err := e.detector.Stats(ctx, userID, days)
	if err != nil {
		e.log.Error("login stats failed", zap.String("user_id", userID), zap.Error(err))
		return loginhistory.Stats{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return stats, nil
}

package loginhistory

import (
	"context"
	"time"
)

// Ledger persists attempts. Append is the only write besides Purge.
type Ledger interface {
	Append(ctx context.Context, e Entry) error
	// History returns the page and the total number of matching entries.
	History(ctx context.Context, userID string, q Query) ([]Entry, int, error)
	CountFailures(ctx context.Context, key FailureKey, since time.Time) (int, error)
	SuccessfulSince(ctx context.Context, userID string, since time.Time) ([]Entry, error)
	Stats(ctx context.Context, userID string, since time.Time) (Stats, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

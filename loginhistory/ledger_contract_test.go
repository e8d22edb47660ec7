package loginhistory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entryAt(userID string, status Status, at time.Time, ip, country string) Entry {
	e := Entry{
		ID:         internal.NewID(),
		UserID:     userID,
		Status:     status,
		AuthMethod: MethodEmail,
		Device: device.Info{
			Device: "Windows PC", Client: "Chrome 120", Platform: "Windows 10", IP: ip,
			Location: device.Location{Country: country, Formatted: country},
		},
		Timestamp: at,
	}
	if status == StatusFailed {
		e.FailReason = FailInvalidPassword
	}
	return e
}

func runLedgerContract(t *testing.T, newLedger func(t *testing.T) Ledger) {
	ctx := context.Background()

	t.Run("history paginates newest first with status filter", func(t *testing.T) {
		ledger := newLedger(t)
		user := "user-" + internal.NewID()
		for i := 0; i < 5; i++ {
			require.NoError(t, ledger.Append(ctx, entryAt(user, StatusSuccess, base.Add(time.Duration(i)*time.Minute), "203.0.113.1", "India")))
		}
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusFailed, base.Add(10*time.Minute), "203.0.113.1", "India")))

		page, total, err := ledger.History(ctx, user, Query{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		require.Len(t, page, 2)
		assert.Equal(t, StatusFailed, page[0].Status)
		assert.Equal(t, FailInvalidPassword, page[0].FailReason)
		assert.True(t, page[0].Timestamp.After(page[1].Timestamp))

		page, total, err = ledger.History(ctx, user, Query{Limit: 2, Offset: 4})
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Len(t, page, 2)

		page, total, err = ledger.History(ctx, user, Query{Status: StatusSuccess, Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		assert.Empty(t, page)
	})

	t.Run("count failures by user and by ip", func(t *testing.T) {
		ledger := newLedger(t)
		user := "user-" + internal.NewID()
		ip := "ip-" + internal.NewID()
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusFailed, base.Add(-20*time.Minute), ip, "")))
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusFailed, base.Add(-5*time.Minute), ip, "")))
		require.NoError(t, ledger.Append(ctx, entryAt("", StatusFailed, base.Add(-time.Minute), ip, "")))
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusSuccess, base, ip, "")))

		n, err := ledger.CountFailures(ctx, FailureKey{UserID: user}, base.Add(-15*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		n, err = ledger.CountFailures(ctx, FailureKey{IP: ip}, base.Add(-15*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("stats and purge", func(t *testing.T) {
		ledger := newLedger(t)
		user := "user-" + internal.NewID()
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusSuccess, base, "203.0.113.1", "")))
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusSuccess, base, "203.0.113.1", "")))
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusFailed, base, "203.0.113.1", "")))
		require.NoError(t, ledger.Append(ctx, entryAt(user, StatusFailed, base.Add(-100*24*time.Hour), "203.0.113.1", "")))

		stats, err := ledger.Stats(ctx, user, base.Add(-30*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, Stats{Successful: 2, Failed: 1, Total: 3}, stats)

		n, err := ledger.Purge(ctx, base.Add(-90*24*time.Hour))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		_, total, err := ledger.History(ctx, user, Query{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		ledger := newLedger(t)
		e := entryAt("u", StatusFailed, base, "", "")
		e.FailReason = ""
		assert.ErrorIs(t, ledger.Append(ctx, e), ErrInvalidEntry)
	})
}

func TestMemoryLedgerContract(t *testing.T) {
	runLedgerContract(t, func(t *testing.T) Ledger { return NewMemoryLedger() })
}

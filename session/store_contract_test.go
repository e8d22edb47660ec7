package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campverse/authcore/device"
	"github.com/campverse/authcore/internal"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type storeFactory func(t *testing.T, clock *testClock) Store

var (
	laptop = device.Info{Device: "Windows PC", Client: "Chrome 120", Platform: "Windows 10", IP: "203.0.113.10"}
	phone  = device.Info{Device: "Mobile", Client: "Safari 17", Platform: "iOS 17", IP: "198.51.100.4"}
)

func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()
	const ttl = 7 * 24 * time.Hour

	t.Run("create returns raw credential once and stores only hash", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		sess, raw, err := store.Create(ctx, uniqueUser(), laptop, ttl)
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		hash, _ := internal.HashRefreshSecret(raw)
		assert.Equal(t, hash, sess.RefreshHash)
		assert.NotEqual(t, raw, sess.RefreshHash)
		assert.True(t, sess.IsActive)
		assert.Equal(t, clock.Now().Add(ttl), sess.ExpiresAt.UTC())

		found, err := store.FindByRefresh(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, found.ID)
	})

	t.Run("same device signature keeps one active session", func(t *testing.T) {
		store := newStore(t, newTestClock())
		user := uniqueUser()
		first, firstRaw, err := store.Create(ctx, user, laptop, ttl)
		require.NoError(t, err)
		_, _, err = store.Create(ctx, user, phone, ttl)
		require.NoError(t, err)
		second, _, err := store.Create(ctx, user, laptop, ttl)
		require.NoError(t, err)

		active, err := store.ListActive(ctx, user)
		require.NoError(t, err)
		require.Len(t, active, 2)

		old, err := store.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, old.IsActive)
		assert.Equal(t, ReasonManual, old.RevokeReason)
		assert.NotEqual(t, first.ID, second.ID)

		_, err = store.FindByRefresh(ctx, firstRaw)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("rotate is single use", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		sess, raw, err := store.Create(ctx, uniqueUser(), laptop, ttl)
		require.NoError(t, err)
		oldHash, _ := internal.HashRefreshSecret(raw)

		clock.Advance(time.Hour)
		nextRaw, _ := internal.NewRefreshSecret()
		nextHash, _ := internal.HashRefreshSecret(nextRaw)

		rotated, err := store.Rotate(ctx, oldHash, nextHash, ttl)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, rotated.ID)
		assert.Equal(t, nextHash, rotated.RefreshHash)
		assert.Equal(t, clock.Now().Add(ttl), rotated.ExpiresAt.UTC())
		assert.Equal(t, clock.Now(), rotated.LastActivityAt.UTC())

		_, err = store.Rotate(ctx, oldHash, "other", ttl)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.FindByRefresh(ctx, raw)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent rotate has one winner", func(t *testing.T) {
		store := newStore(t, newTestClock())
		_, raw, err := store.Create(ctx, uniqueUser(), laptop, ttl)
		require.NoError(t, err)
		oldHash, _ := internal.HashRefreshSecret(raw)

		const n = 12
		var wg sync.WaitGroup
		results := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				next, _ := internal.NewRefreshSecret()
				nextHash, _ := internal.HashRefreshSecret(next)
				_, err := store.Rotate(ctx, oldHash, nextHash, ttl)
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			require.ErrorIs(t, err, ErrNotFound)
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("expired session is never found", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		_, raw, err := store.Create(ctx, uniqueUser(), laptop, time.Minute)
		require.NoError(t, err)

		clock.Advance(time.Minute)
		_, err = store.FindByRefresh(ctx, raw)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		store := newStore(t, newTestClock())
		sess, raw, err := store.Create(ctx, uniqueUser(), laptop, ttl)
		require.NoError(t, err)

		revoked, err := store.Revoke(ctx, sess.ID, ReasonLogout, sess.UserID)
		require.NoError(t, err)
		assert.False(t, revoked.IsActive)
		assert.Equal(t, ReasonLogout, revoked.RevokeReason)
		assert.Equal(t, sess.UserID, revoked.RevokedBy)
		require.NotNil(t, revoked.RevokedAt)

		_, err = store.Revoke(ctx, sess.ID, ReasonLogout, sess.UserID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Revoke(ctx, "missing", ReasonLogout, "")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.FindByRefresh(ctx, raw)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("revoke all except keeps one", func(t *testing.T) {
		store := newStore(t, newTestClock())
		user := uniqueUser()
		keep, _, err := store.Create(ctx, user, laptop, ttl)
		require.NoError(t, err)
		other, _, err := store.Create(ctx, user, phone, ttl)
		require.NoError(t, err)

		ids, err := store.RevokeAllExcept(ctx, user, keep.ID, ReasonSecurity, user)
		require.NoError(t, err)
		assert.Equal(t, []string{other.ID}, ids)

		active, err := store.ListActive(ctx, user)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, keep.ID, active[0].ID)

		ids, err = store.RevokeAll(ctx, user, ReasonPasswordChange, user)
		require.NoError(t, err)
		assert.Equal(t, []string{keep.ID}, ids)

		_, err = store.RevokeAll(ctx, user, RevokeReason("bogus"), user)
		assert.ErrorIs(t, err, ErrInvalidReason)
	})

	t.Run("list active orders by last activity", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		user := uniqueUser()
		older, _, err := store.Create(ctx, user, laptop, ttl)
		require.NoError(t, err)
		clock.Advance(time.Minute)
		newer, _, err := store.Create(ctx, user, phone, ttl)
		require.NoError(t, err)

		active, err := store.ListActive(ctx, user)
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, newer.ID, active[0].ID)

		clock.Advance(time.Minute)
		require.NoError(t, store.Touch(ctx, older.ID))
		active, err = store.ListActive(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, older.ID, active[0].ID)
	})

	t.Run("sweep removes expired and stale revoked", func(t *testing.T) {
		clock := newTestClock()
		store := newStore(t, clock)
		user := uniqueUser()
		short, _, err := store.Create(ctx, user, laptop, time.Hour)
		require.NoError(t, err)
		revoked, _, err := store.Create(ctx, user, phone, ttl)
		require.NoError(t, err)
		_, err = store.Revoke(ctx, revoked.ID, ReasonLogout, user)
		require.NoError(t, err)
		live, _, err := store.Create(ctx, user, device.Info{Device: "Mac", Client: "Firefox 121", Platform: "Mac OS X 14"}, 60*24*time.Hour)
		require.NoError(t, err)

		clock.Advance(31 * 24 * time.Hour)
		n, err := store.SweepExpired(ctx, 30*24*time.Hour)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(2))

		_, err = store.Get(ctx, short.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Get(ctx, revoked.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.Get(ctx, live.ID)
		assert.NoError(t, err)
	})
}

func uniqueUser() string {
	return "user-" + internal.NewID()
}

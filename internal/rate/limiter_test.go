package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, cfg), mr
}

func TestCheckRefreshFixedWindow(t *testing.T) {
	l, mr := newTestLimiter(t, Config{EnableRefreshThrottle: true, MaxRefreshAttempts: 3, RefreshWindow: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.CheckRefresh(ctx, "10.0.0.1:abcd"))
	}
	assert.ErrorIs(t, l.CheckRefresh(ctx, "10.0.0.1:abcd"), ErrRateLimited)
	assert.NoError(t, l.CheckRefresh(ctx, "10.0.0.2:abcd"))

	mr.FastForward(time.Minute + time.Second)
	assert.NoError(t, l.CheckRefresh(ctx, "10.0.0.1:abcd"))
}

func TestCheckRefreshDisabled(t *testing.T) {
	l, mr := newTestLimiter(t, Config{EnableRefreshThrottle: false})
	for i := 0; i < 100; i++ {
		require.NoError(t, l.CheckRefresh(context.Background(), "k"))
	}
	assert.Empty(t, mr.Keys())
}

func TestLoginFailureCounter(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginFailures: 2, LoginFailureWindow: time.Minute})
	ctx := context.Background()

	require.NoError(t, l.CheckLogin(ctx, "Ada@Example.com", ""))
	require.NoError(t, l.IncrementLogin(ctx, "ada@example.com", ""))
	require.NoError(t, l.CheckLogin(ctx, "ada@example.com", ""))
	require.NoError(t, l.IncrementLogin(ctx, " ADA@example.com", ""))
	assert.ErrorIs(t, l.CheckLogin(ctx, "ada@example.com", ""), ErrRateLimited)

	n, err := l.LoginFailures(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, l.ResetLogin(ctx, "ada@example.com"))
	assert.NoError(t, l.CheckLogin(ctx, "ada@example.com", ""))
}

func TestLoginIPThrottle(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxLoginFailures: 1, LoginFailureWindow: time.Minute, EnableIPThrottle: true})
	ctx := context.Background()

	require.NoError(t, l.IncrementLogin(ctx, "a@example.com", "10.1.1.1"))
	assert.ErrorIs(t, l.CheckLogin(ctx, "b@example.com", "10.1.1.1"), ErrRateLimited)
	assert.NoError(t, l.CheckLogin(ctx, "b@example.com", "10.1.1.2"))
}

func TestRedisFailureIsUnavailable(t *testing.T) {
	l, mr := newTestLimiter(t, Config{EnableRefreshThrottle: true, MaxRefreshAttempts: 1, RefreshWindow: time.Minute})
	mr.Close()
	assert.ErrorIs(t, l.CheckRefresh(context.Background(), "k"), ErrRedisUnavailable)
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.CheckRefresh(context.Background(), "k"))
	assert.NoError(t, l.CheckLogin(context.Background(), "x", "y"))
}

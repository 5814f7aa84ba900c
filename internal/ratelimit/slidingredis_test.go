package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T, now *time.Time) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "test:", Now: func() time.Time { return *now }}, mr
}

func TestLimiterAllowSlidingWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter, _ := newLimiter(t, &now)
	ctx := context.Background()
	window := 10 * time.Second

	for i := 0; i < 2; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "generate", window, 2)
		require.NoError(t, err)
		require.True(t, allowed, "request %d", i)
		require.Equal(t, 1-i, remaining)
		now = now.Add(time.Second)
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "generate", window, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)

	// the first event ages out, the second is still inside the window
	now = now.Add(8 * time.Second)
	allowed, remaining, _, err = limiter.Allow(ctx, "generate", window, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)
}

func TestLimiterRejectedEventsAreNotCounted(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter, mr := newLimiter(t, &now)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "webhook", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, allowed)
	for i := 0; i < 3; i++ {
		allowed, _, _, err = limiter.Allow(ctx, "webhook", time.Minute, 1)
		require.NoError(t, err)
		require.False(t, allowed)
	}
	members, err := mr.ZMembers("test:webhook")
	require.NoError(t, err)
	require.Len(t, members, 1)
}

func TestLimiterWithoutClientAllows(t *testing.T) {
	allowed, remaining, _, err := Limiter{}.Allow(context.Background(), "k", time.Second, 3)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 3, remaining)
}

package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tieshop/internal/resilience"
)

func newCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute)
}

func TestCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	key, err := c.Key(ctx, "dashboard")
	require.NoError(t, err)
	require.NoError(t, c.SetJSON(ctx, key, map[string]int{"orders": 3}))

	var got map[string]int
	ok, err := c.GetJSON(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, got["orders"])

	require.NoError(t, c.Invalidate(ctx))
	next, err := c.Key(ctx, "dashboard")
	require.NoError(t, err)
	require.NotEqual(t, key, next)

	ok, err = c.GetJSON(ctx, next, &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	c := New(nil, time.Minute)
	require.False(t, c.Enabled())
	require.NoError(t, c.SetJSON(ctx, "k", 1))
	var v int
	ok, err := c.GetJSON(ctx, "k", &v)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, c.Invalidate(ctx))
}

func TestBreakerSkipsUnreachableRedis(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	c := New(client, time.Minute).WithBreaker(resilience.NewBreaker(1, 0.5, time.Minute))

	_, err = c.Key(ctx, "dashboard")
	require.NoError(t, err, "a missing generation is a miss, not a failure")

	mr.Close()
	_, err = c.Key(ctx, "dashboard")
	require.Error(t, err)
	require.NotErrorIs(t, err, resilience.ErrOpenCircuit)

	_, err = c.Key(ctx, "dashboard")
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)

	var v int
	ok, err := c.GetJSON(ctx, "k", &v)
	require.ErrorIs(t, err, resilience.ErrOpenCircuit)
	require.False(t, ok)
}

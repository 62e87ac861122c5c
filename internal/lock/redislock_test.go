package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tieshop/internal/lock"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestWithLockFailsFastWhenHeld(t *testing.T) {
	_, client := newClient(t)
	locker := lock.Locker{R: client}
	ctx := context.Background()

	err := locker.WithLock(ctx, "recompute", time.Minute, func(ctx context.Context) error {
		inner := locker.WithLock(ctx, "recompute", time.Minute, func(context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		require.ErrorIs(t, inner, lock.ErrLocked)
		return nil
	})
	require.NoError(t, err)
}

func TestWithLockReleasesAfterError(t *testing.T) {
	mr, client := newClient(t)
	locker := lock.Locker{R: client}
	ctx := context.Background()
	boom := errors.New("boom")

	err := locker.WithLock(ctx, "recompute", time.Minute, func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.False(t, mr.Exists("tieshop:lock:recompute"))

	ran := false
	require.NoError(t, locker.WithLock(ctx, "recompute", time.Minute, func(context.Context) error {
		ran = true
		return nil
	}))
	require.True(t, ran)
}

func TestWithLockWaitsForRelease(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set("tieshop:lock:recompute", "someone-else"))

	go func() {
		time.Sleep(50 * time.Millisecond)
		mr.Del("tieshop:lock:recompute")
	}()

	locker := lock.Locker{R: client, Wait: 2 * time.Second, RetryBackoff: 10 * time.Millisecond}
	ran := false
	err := locker.WithLock(context.Background(), "recompute", time.Minute, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestReleaseKeepsForeignToken(t *testing.T) {
	mr, client := newClient(t)
	locker := lock.Locker{R: client}

	err := locker.WithLock(context.Background(), "recompute", time.Minute, func(context.Context) error {
		// simulate expiry and takeover by another process
		return mr.Set("tieshop:lock:recompute", "other")
	})
	require.NoError(t, err)
	got, err := mr.Get("tieshop:lock:recompute")
	require.NoError(t, err)
	require.Equal(t, "other", got)
}

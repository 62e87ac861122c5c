// Package lock provides a Redis lock used to keep maintenance jobs, such as
// recomputing order totals, from running twice at once.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-tieshop/internal/resilience"
)

const keyPrefix = "tieshop:lock:"

// ErrLocked is returned when another holder owns the lock and Wait elapsed.
var ErrLocked = errors.New("lock: already held")

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// Locker acquires locks with SET NX. With Wait zero an acquisition attempt
// fails immediately; otherwise it retries with jittered backoff for up to Wait.
type Locker struct {
	R            *redis.Client
	Wait         time.Duration
	RetryBackoff time.Duration
}

// WithLock runs fn while holding key. The lock is released when fn returns,
// whatever its result, and expires after ttl if the process dies.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	key = keyPrefix + key
	token := uuid.NewString()
	if err := l.acquire(ctx, key, token, ttl); err != nil {
		return err
	}
	defer l.release(key, token)
	return fn(ctx)
}

func (l Locker) acquire(ctx context.Context, key, token string, ttl time.Duration) error {
	base := l.RetryBackoff
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	deadline := time.Now().Add(l.Wait)
	for attempt := 1; ; attempt++ {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrLocked
		}
		delay := min(resilience.Backoff(base, min(attempt, 6), 0.2), time.Second, time.Until(deadline))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = l.R.Eval(ctx, releaseScript, []string{key}, token).Err()
}

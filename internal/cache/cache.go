// Package cache stores JSON payloads in Redis under a generation number.
// Bumping the generation invalidates every key at once without scanning.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-tieshop/internal/resilience"
)

const generationKey = "tieshop:cache:generation"

// Invalidator is implemented by anything that can drop derived data after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Nop is an Invalidator that does nothing.
type Nop struct{}

// Invalidate implements Invalidator.
func (Nop) Invalidate(context.Context) error { return nil }

// Cache wraps Redis helpers for JSON payloads. A nil client disables caching.
// Reads and writes go through an optional breaker so a failing Redis is
// skipped quickly; callers then fall back to computing the value.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// New constructs a cache helper.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker guards Redis calls with b.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

func isMiss(err error) bool { return errors.Is(err, redis.Nil) }

// Enabled reports whether reads and writes reach Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Key namespaces base with the current generation.
func (c *Cache) Key(ctx context.Context, base string) (string, error) {
	if !c.Enabled() {
		return base, nil
	}
	var gen int64
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		gen, err = c.client.Get(ctx, generationKey).Int64()
		return err
	}, isMiss)
	if err != nil && !isMiss(err) {
		return "", err
	}
	return "tieshop:" + strconv.FormatInt(gen, 10) + ":" + base, nil
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() || key == "" {
		return false, nil
	}
	var data []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		return err
	}, isMiss)
	if err != nil {
		if isMiss(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.Enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	}, nil)
}

// Invalidate moves to a new generation; keys of older generations expire on
// their own. It bypasses an open breaker so a write is never left uncounted.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	err := c.client.Incr(ctx, generationKey).Err()
	if c.breaker.State() != resilience.Open {
		c.breaker.Report(ctx, err == nil)
	}
	return err
}

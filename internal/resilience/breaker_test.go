package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(min int, ratio float64, openFor time.Duration) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	b := NewBreaker(min, ratio, openFor)
	b.now = clock.now
	return b, clock
}

func TestBreakerTransitions(t *testing.T) {
	ctx := context.Background()
	b, clock := newTestBreaker(2, 0.5, time.Minute)

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)

	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))

	clock.t = clock.t.Add(time.Minute)
	require.True(t, b.Allow(ctx))
	require.Equal(t, HalfOpen, b.State())
	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	b, clock := newTestBreaker(1, 0.5, time.Second)

	b.Report(ctx, false)
	require.Equal(t, Open, b.State())

	clock.t = clock.t.Add(2 * time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
}

func TestBreakerDo(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBreaker(1, 0.5, time.Minute)
	miss := errors.New("miss")
	down := errors.New("down")
	benign := func(err error) bool { return errors.Is(err, miss) }

	err := b.Do(ctx, func(context.Context) error { return miss }, benign)
	require.ErrorIs(t, err, miss)
	require.Equal(t, Closed, b.State())

	err = b.Do(ctx, func(context.Context) error { return down }, benign)
	require.ErrorIs(t, err, down)
	require.Equal(t, Open, b.State())

	called := false
	err = b.Do(ctx, func(context.Context) error { called = true; return nil }, benign)
	require.ErrorIs(t, err, ErrOpenCircuit)
	require.False(t, called)
}

func TestNilBreakerAllowsEverything(t *testing.T) {
	var b *Breaker
	ctx := context.Background()
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Closed, b.State())
	require.NoError(t, b.Do(ctx, func(context.Context) error { return nil }, nil))
}

func TestBreakerMetrics(t *testing.T) {
	MustRegisterMetrics("test", prometheus.NewRegistry())
	ctx := context.Background()
	b, clock := newTestBreaker(1, 0.5, time.Second)
	b.WithTarget("report_cache")

	b.Report(ctx, false)
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("report_cache")))

	clock.t = clock.t.Add(time.Second)
	require.True(t, b.Allow(ctx))
	require.Equal(t, 2.0, testutil.ToFloat64(BreakerState.WithLabelValues("report_cache")))

	b.Report(ctx, true)
	require.Equal(t, 0.0, testutil.ToFloat64(BreakerState.WithLabelValues("report_cache")))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("report_cache", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("report_cache", "half_open", "closed")))
}

func TestBackoff(t *testing.T) {
	base := 100 * time.Millisecond
	require.Equal(t, base, Backoff(base, 1, 0))
	require.Equal(t, base*4, Backoff(base, 3, 0))

	d := Backoff(base, 2, 0.2)
	require.GreaterOrEqual(t, d, base*2-base*2/5)
	require.LessOrEqual(t, d, base*2+base*2/5)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/noah-isme/backend-tieshop/internal/app"
	"github.com/noah-isme/backend-tieshop/internal/config"
	"github.com/noah-isme/backend-tieshop/internal/lock"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/order"
)

// recompute re-derives the stored totals of every order from its current
// items and product prices, e.g. after unit or cost prices were corrected.
func main() {
	var (
		timeout = flag.Duration("timeout", 10*time.Minute, "overall time limit")
		dryRun  = flag.Bool("dry-run", false, "only report how many orders would be recomputed")
		wait    = flag.Duration("wait", 0, "how long to wait for a running recompute to finish")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := obs.NewLogger("console", "info").With().Str("tool", "recompute").Logger()
	obs.MustRegisterDomainMetrics("tieshop", nil)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	deps, err := app.New(ctx, cfg, logger, app.Options{AppName: "tieshop-recompute", SkipMigrations: true})
	if err != nil {
		log.Fatalf("initialise dependencies: %v", err)
	}
	defer deps.Close()

	svc := &order.Service{
		Store:    order.NewPostgresStore(deps.Store),
		Cache:    deps.Cache,
		Logger:   logger,
		Location: cfg.Timezone,
		Currency: cfg.CurrencySymbol,
	}

	if *dryRun {
		ids, err := deps.Store.ListOrderIDs(ctx)
		if err != nil {
			log.Fatalf("list orders: %v", err)
		}
		logger.Info().Int("orders", len(ids)).Msg("would recompute")
		return
	}

	run := func(ctx context.Context) error {
		start := time.Now()
		n, err := svc.RecomputeAll(ctx)
		if err != nil {
			logger.Error().Err(err).Int("recomputed", n).Msg("recompute stopped")
			return err
		}
		logger.Info().Int("recomputed", n).Dur("took", time.Since(start)).Msg("recompute finished")
		return nil
	}

	if deps.Redis == nil {
		logger.Warn().Msg("REDIS_URL not set, running without the recompute lock")
		err = run(ctx)
	} else {
		locker := lock.Locker{R: deps.Redis, Wait: *wait}
		err = locker.WithLock(ctx, "recompute", *timeout, run)
	}
	if errors.Is(err, lock.ErrLocked) {
		logger.Warn().Msg("another recompute is running")
	}
	if err != nil {
		deps.Close()
		log.Fatalf("recompute: %v", err)
	}
}

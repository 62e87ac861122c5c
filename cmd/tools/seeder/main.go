package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/auth"
	"github.com/noah-isme/backend-tieshop/internal/config"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

type sampleProduct struct {
	SKU         string
	Name        string
	Description string
	Unit        string
	Cost        string
}

var sampleProducts = []sampleProduct{
	{"TIE-SLK-NVY", "Silk Tie Navy", "Classic navy silk, 8cm", "4500", "2500"},
	{"TIE-SLK-BRG", "Silk Tie Burgundy", "Burgundy silk, 8cm", "4500", "2500"},
	{"TIE-KNT-BLK", "Knit Tie Black", "Square-end knit, 6cm", "3800", "1900"},
	{"TIE-PSL-GRN", "Paisley Tie Green", "Printed paisley, 7cm", "4200", "2100"},
	{"TIE-BOW-RED", "Bow Tie Red", "Pre-tied bow tie", "3000", "1400"},
	{"TIE-WOL-GRY", "Wool Tie Grey", "Winter wool blend, 7.5cm", "5200", "2900"},
}

func main() {
	withProducts := flag.Bool("products", true, "seed sample tie products")
	flag.Parse()

	logger := obs.NewLogger("console", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	pool, err := store.NewPool(ctx, cfg.DatabaseURL, "tieshop-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	q := store.New(pool)

	if cfg.AdminUsername == "" {
		logger.Warn().Msg("ADMIN_USERNAME not set, skipping admin account")
	} else {
		authService, err := auth.NewService(auth.Config{Queries: q, Secret: cfg.JWTSecret})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise auth service")
		}
		admin, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("seed admin")
		}
		logger.Info().Str("username", admin.Username).Msg("admin ready")
	}

	if *withProducts {
		created, err := seedProducts(ctx, q)
		if err != nil {
			logger.Error().Err(err).Msg("seed products")
			os.Exit(1)
		}
		logger.Info().Int("created", created).Int("total", len(sampleProducts)).Msg("products seeded")
	}

	logger.Info().Msg("seeding completed")
}

func seedProducts(ctx context.Context, q *store.Queries) (int, error) {
	created := 0
	for _, p := range sampleProducts {
		if _, err := q.GetProductBySKU(ctx, p.SKU); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}
		if _, err := q.CreateProduct(ctx, store.CreateProductParams{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			UnitPrice:   decimal.RequireFromString(p.Unit),
			CostPrice:   decimal.RequireFromString(p.Cost),
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tieshop/internal/app"
	"github.com/noah-isme/backend-tieshop/internal/config"
	"github.com/noah-isme/backend-tieshop/internal/health"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/resilience"
)

const shutdownGrace = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	s, err := loadSettings(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "settings:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(s.LogFormat, s.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	if err := run(cfg, s, logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *config.Config, s settings, logger zerolog.Logger) error {
	obs.MustRegisterDomainMetrics(s.Router.MetricsNamespace, nil)
	resilience.MustRegisterMetrics(s.Router.MetricsNamespace, nil)

	if s.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), s.Tracing)
		if err != nil {
			logger.Error().Err(err).Msg("tracing disabled")
			s.TracingEnabled = false
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("flush traces")
			}
		}()
	}
	s.Router.Tracing = s.TracingEnabled

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deps, err := app.New(startCtx, cfg, logger, app.Options{
		AppName:      "tieshop-api",
		TraceRedis:   s.TracingEnabled,
		MetricsRedis: s.Router.Metrics,
	})
	cancel()
	if err != nil {
		return fmt.Errorf("initialise dependencies: %w", err)
	}
	defer deps.Close()

	handler, err := newRouter(ctx, deps, s.Router)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("packaging", cfg.ReportPackaging).Msg("api listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Dur("grace", shutdownGrace).Msg("draining connections")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

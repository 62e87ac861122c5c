package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-tieshop/internal/app"
	"github.com/noah-isme/backend-tieshop/internal/audit"
	"github.com/noah-isme/backend-tieshop/internal/auth"
	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/customer"
	"github.com/noah-isme/backend-tieshop/internal/expense"
	"github.com/noah-isme/backend-tieshop/internal/export"
	"github.com/noah-isme/backend-tieshop/internal/health"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/order"
	"github.com/noah-isme/backend-tieshop/internal/product"
	"github.com/noah-isme/backend-tieshop/internal/ratelimit"
	"github.com/noah-isme/backend-tieshop/internal/report"
	"github.com/noah-isme/backend-tieshop/internal/security"
)

type routerOptions struct {
	Metrics          bool
	MetricsNamespace string
	MetricsBuckets   []float64
	Tracing          bool
	Pprof            bool
	PprofUser        string
	PprofPass        string
	MaxBodyBytes     int64
	SecurityHeaders  bool
	HSTS             bool
	DBTimeout        time.Duration
	RedisTimeout     time.Duration
}

func newRouter(ctx context.Context, deps *app.Dependencies, opts routerOptions) (http.Handler, error) {
	cfg := deps.Config
	logger := deps.Logger

	authService, err := auth.NewService(auth.Config{
		Queries:        deps.Store,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		return nil, err
	}
	if cfg.AdminUsername != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			return nil, err
		}
		logger.Info().Str("username", cfg.AdminUsername).Msg("admin account ensured")
	}
	authHandler := &auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	reportSvc := &report.Service{
		Q:         deps.Store,
		Cache:     deps.Cache,
		Packaging: report.PackagingMode(cfg.ReportPackaging),
		Location:  cfg.Timezone,
		Logger:    logger.With().Str("component", "report").Logger(),
	}
	reportHandler := &report.Handler{Svc: reportSvc}

	orderSvc := &order.Service{
		Store:    order.NewPostgresStore(deps.Store),
		Cache:    deps.Cache,
		Logger:   logger.With().Str("component", "order").Logger(),
		Location: cfg.Timezone,
		Currency: cfg.CurrencySymbol,
	}
	orderHandler := &order.Handler{Svc: orderSvc, PageSize: cfg.PageSize}

	productSvc, err := product.NewService(product.ServiceConfig{
		Queries:      deps.Store,
		Cache:        deps.Cache,
		Logger:       logger.With().Str("component", "product").Logger(),
		DefaultLimit: cfg.PageSize,
	})
	if err != nil {
		return nil, err
	}
	productHandler := product.NewHandler(product.HandlerConfig{Service: productSvc})

	customerSvc := &customer.Service{
		Q:         deps.Store,
		Stats:     reportSvc,
		OrderList: orderSvc,
		Cache:     deps.Cache,
		Logger:    logger.With().Str("component", "customer").Logger(),
	}
	customerHandler := &customer.Handler{Service: customerSvc, PageSize: cfg.PageSize}

	expenseSvc := &expense.Service{
		Q:        deps.Store,
		Cache:    deps.Cache,
		Logger:   logger.With().Str("component", "expense").Logger(),
		Location: cfg.Timezone,
	}
	expenseHandler := &expense.Handler{Svc: expenseSvc}

	exportHandler := &export.Handler{
		OrderSource: orderSvc,
		Reports:     reportSvc,
		Location:    cfg.Timezone,
		Logger:      logger.With().Str("component", "export").Logger(),
	}

	loginLimit := ratelimit.Handler{
		Limiter: deps.LoginLimiter,
		OnError: func(err error) { logger.Error().Err(err).Msg("login rate limiter") },
	}
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	auditSvc := &audit.Service{Store: deps.Store, Enabled: cfg.AuditEnabled}
	auditRecorder := audit.Recorder{
		Service: auditSvc,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit log") },
	}
	auditHandler := audit.Handler{Service: auditSvc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.Metrics {
		httpMetrics := obs.NewHTTPMetrics(opts.MetricsNamespace, opts.MetricsBuckets, nil)
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: opts.SecurityHeaders, EnableHSTS: opts.HSTS}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-RateLimit-Remaining"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Pprof {
		var guard []func(http.Handler) http.Handler
		if opts.PprofUser != "" {
			guard = append(guard, middleware.BasicAuth("pprof", map[string]string{opts.PprofUser: opts.PprofPass}))
		}
		r.With(guard...).Mount("/debug", middleware.Profiler())
	}

	healthHandler := health.Handler{Probes: deps.Probes(opts.DBTimeout, opts.RedisTimeout)}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: opts.MaxBodyBytes}.Middleware)

		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimit.Middleware).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Group(func(p chi.Router) {
			p.Use(authMiddleware.RequireAuth)
			p.Use(auditRecorder.Middleware)

			p.Get("/dashboard", reportHandler.Dashboard)
			p.Get("/audit", auditHandler.List)

			p.Route("/products", func(pr chi.Router) {
				pr.Get("/", productHandler.List)
				pr.With(idem.Middleware).Post("/", productHandler.Create)
				pr.Get("/{id}", productHandler.Get)
				pr.Put("/{id}", productHandler.Update)
				pr.Delete("/{id}", productHandler.Delete)
			})

			p.Route("/customers", func(c chi.Router) {
				c.Get("/", customerHandler.List)
				c.Get("/{id}", customerHandler.Get)
				c.Put("/{id}", customerHandler.Update)
				c.Delete("/{id}", customerHandler.Delete)
				c.Get("/{id}/orders", customerHandler.Orders)
			})

			p.Route("/orders", func(o chi.Router) {
				o.Get("/", orderHandler.List)
				o.With(idem.Middleware).Post("/", orderHandler.Create)
				o.Get("/export", exportHandler.Orders)
				o.Get("/{id}", orderHandler.Get)
				o.Put("/{id}", orderHandler.Update)
				o.Delete("/{id}", orderHandler.Delete)
				o.Patch("/{id}/status", orderHandler.PatchStatus)
				o.With(idem.Middleware).Post("/{id}/items", orderHandler.AddItem)
				o.Patch("/{id}/items/{itemId}", orderHandler.UpdateItem)
				o.Delete("/{id}/items/{itemId}", orderHandler.RemoveItem)
			})

			p.Route("/expenses", func(e chi.Router) {
				e.Get("/", expenseHandler.List)
				e.With(idem.Middleware).Post("/", expenseHandler.Create)
				e.Get("/{id}", expenseHandler.Get)
				e.Put("/{id}", expenseHandler.Update)
				e.Delete("/{id}", expenseHandler.Delete)
			})

			p.Get("/reports/financial", reportHandler.Financial)
			p.Get("/reports/financial/export", exportHandler.Financial)
		})
	})

	return r, nil
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

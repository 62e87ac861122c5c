// Package config loads process settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Packaging modes accepted by REPORT_PACKAGING_MODE.
const (
	PackagingSeparate = "separate"
	PackagingLegacy   = "legacy"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string
	AccessTokenTTL     time.Duration
	ReportCacheTTL     time.Duration
	ReportPackaging    string
	IdempotencyTTL     time.Duration
	PageSize           int
	CurrencySymbol     string
	LoginRateLimit     string
	AdminUsername      string
	AdminPassword      string
	MigrateOnStart     bool
	AuditEnabled       bool
	Timezone           *time.Location
}

var defaults = map[string]string{
	"APP_ENV":               "development",
	"PORT":                  "8080",
	"ACCESS_TOKEN_TTL":      "12h",
	"REPORT_CACHE_TTL":      "0s",
	"REPORT_PACKAGING_MODE": PackagingSeparate,
	"IDEMPOTENCY_TTL":       "24h",
	"PAGE_SIZE":             "20",
	"CURRENCY_SYMBOL":       "₦",
	"LOGIN_RATE_LIMIT":      "10-M",
	"MIGRATE_ON_START":      "true",
	"AUDIT_ENABLED":         "true",
	"APP_TIMEZONE":          "Africa/Lagos",
}

// Load reads .env (when present) and the process environment. Blank
// variables fall back to their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, value := range defaults {
		_ = k.Set(key, value)
	}
	provider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, strings.TrimSpace(value)
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	p := parser{k: k}
	cfg := &Config{
		AppEnv:             k.String("APP_ENV"),
		Port:               k.String("PORT"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AccessTokenTTL:     p.duration("ACCESS_TOKEN_TTL", false),
		ReportCacheTTL:     p.duration("REPORT_CACHE_TTL", true),
		ReportPackaging:    strings.ToLower(k.String("REPORT_PACKAGING_MODE")),
		IdempotencyTTL:     p.duration("IDEMPOTENCY_TTL", false),
		PageSize:           k.Int("PAGE_SIZE"),
		CurrencySymbol:     k.String("CURRENCY_SYMBOL"),
		LoginRateLimit:     k.String("LOGIN_RATE_LIMIT"),
		AdminUsername:      k.String("ADMIN_USERNAME"),
		AdminPassword:      k.String("ADMIN_PASSWORD"),
		MigrateOnStart:     p.boolean("MIGRATE_ON_START"),
		AuditEnabled:       p.boolean("AUDIT_ENABLED"),
	}
	if loc, err := time.LoadLocation(k.String("APP_TIMEZONE")); err != nil {
		p.errs = append(p.errs, fmt.Errorf("APP_TIMEZONE: %w", err))
	} else {
		cfg.Timezone = loc
	}

	if cfg.DatabaseURL == "" {
		p.errs = append(p.errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.JWTSecret == "" {
		p.errs = append(p.errs, errors.New("JWT_SECRET is required"))
	}
	switch cfg.ReportPackaging {
	case PackagingSeparate, PackagingLegacy:
	default:
		p.errs = append(p.errs, fmt.Errorf("REPORT_PACKAGING_MODE must be %q or %q", PackagingSeparate, PackagingLegacy))
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// LegacyPackaging reports whether packaging expenses are also counted in the
// general and order expense buckets.
func (c *Config) LegacyPackaging() bool {
	return c.ReportPackaging == PackagingLegacy
}

// parser collects conversion errors so Load reports every bad variable at once.
type parser struct {
	k    *koanf.Koanf
	errs []error
}

// duration parses key; zero is accepted only when it means "off".
func (p *parser) duration(key string, zeroOK bool) time.Duration {
	d, err := time.ParseDuration(p.k.String(key))
	if err != nil || d < 0 || (d == 0 && !zeroOK) {
		p.errs = append(p.errs, fmt.Errorf("%s: expected a positive duration, got %q", key, p.k.String(key)))
		return 0
	}
	return d
}

func (p *parser) boolean(key string) bool {
	switch strings.ToLower(p.k.String(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	p.errs = append(p.errs, fmt.Errorf("%s: expected a boolean, got %q", key, p.k.String(key)))
	return false
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

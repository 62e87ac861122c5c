package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-tieshop/internal/obs"
)

// settings are the process-level knobs that sit outside config.Config:
// logging, telemetry and HTTP hardening.
type settings struct {
	LogFormat      string
	LogLevel       string
	TracingEnabled bool
	Tracing        obs.TracingConfig
	Router         routerOptions
}

var settingDefaults = map[string]any{
	"OBS_LOG_FORMAT":                "json",
	"OBS_LOG_LEVEL":                 "info",
	"OBS_METRICS_NAMESPACE":         "tieshop",
	"OBS_ENABLE_PROMETHEUS":         true,
	"OBS_ENABLE_TRACING":            true,
	"OBS_TRACING_EXPORTER":          "otlp",
	"OBS_TRACING_SAMPLING_RATIO":    1.0,
	"OBS_ENABLE_PPROF":              false,
	"SECURE_MAX_BODY_BYTES":         1 << 20,
	"SECURE_HEADERS_ENABLED":        true,
	"SECURE_HSTS_ENABLED":           false,
	"HEALTH_READY_DB_TIMEOUT_MS":    500,
	"HEALTH_READY_REDIS_TIMEOUT_MS": 300,
}

func loadSettings(appEnv string) (settings, error) {
	k := koanf.New(".")
	for key, value := range settingDefaults {
		_ = k.Set(key, value)
	}
	provider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if !strings.HasPrefix(key, "OBS_") && !strings.HasPrefix(key, "SECURE_") && !strings.HasPrefix(key, "HEALTH_") {
			return "", nil
		}
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return key, strings.TrimSpace(value)
	})
	if err := k.Load(provider, nil); err != nil {
		return settings{}, fmt.Errorf("load settings: %w", err)
	}

	millis := func(key string) time.Duration { return time.Duration(k.Int(key)) * time.Millisecond }
	s := settings{
		LogFormat:      k.String("OBS_LOG_FORMAT"),
		LogLevel:       k.String("OBS_LOG_LEVEL"),
		TracingEnabled: k.Bool("OBS_ENABLE_TRACING"),
		Tracing: obs.TracingConfig{
			ServiceName:   "tieshop-api",
			Endpoint:      k.String("OBS_OTLP_ENDPOINT"),
			Exporter:      k.String("OBS_TRACING_EXPORTER"),
			SamplingRatio: k.Float64("OBS_TRACING_SAMPLING_RATIO"),
			Environment:   appEnv,
		},
		Router: routerOptions{
			Metrics:          k.Bool("OBS_ENABLE_PROMETHEUS"),
			MetricsNamespace: k.String("OBS_METRICS_NAMESPACE"),
			MetricsBuckets:   obs.ParseBucketsCSV(k.String("OBS_METRICS_BUCKETS_MS")),
			Pprof:            k.Bool("OBS_ENABLE_PPROF"),
			PprofUser:        k.String("SECURE_PPROF_BASIC_AUTH_USER"),
			PprofPass:        k.String("SECURE_PPROF_BASIC_AUTH_PASS"),
			MaxBodyBytes:     k.Int64("SECURE_MAX_BODY_BYTES"),
			SecurityHeaders:  k.Bool("SECURE_HEADERS_ENABLED"),
			HSTS:             k.Bool("SECURE_HSTS_ENABLED"),
			DBTimeout:        millis("HEALTH_READY_DB_TIMEOUT_MS"),
			RedisTimeout:     millis("HEALTH_READY_REDIS_TIMEOUT_MS"),
		},
	}
	if s.Router.Pprof && s.Router.PprofUser == "" && appEnv == "production" {
		return settings{}, errors.New("OBS_ENABLE_PPROF requires SECURE_PPROF_BASIC_AUTH_USER in production")
	}
	return s, nil
}

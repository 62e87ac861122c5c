package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	for _, key := range []string{"OBS_LOG_FORMAT", "OBS_ENABLE_PPROF", "SECURE_MAX_BODY_BYTES", "HEALTH_READY_DB_TIMEOUT_MS", "OBS_TRACING_SAMPLING_RATIO"} {
		t.Setenv(key, "")
	}
	s, err := loadSettings("development")
	require.NoError(t, err)
	require.Equal(t, "json", s.LogFormat)
	require.False(t, s.Router.Pprof)
	require.EqualValues(t, 1<<20, s.Router.MaxBodyBytes)
	require.Equal(t, 500*time.Millisecond, s.Router.DBTimeout)
	require.Equal(t, 1.0, s.Tracing.SamplingRatio)
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("OBS_ENABLE_PROMETHEUS", "false")
	t.Setenv("SECURE_MAX_BODY_BYTES", "2048")
	t.Setenv("OBS_METRICS_BUCKETS_MS", "5,50")
	s, err := loadSettings("development")
	require.NoError(t, err)
	require.False(t, s.Router.Metrics)
	require.EqualValues(t, 2048, s.Router.MaxBodyBytes)
	require.Equal(t, []float64{5, 50}, s.Router.MetricsBuckets)
}

func TestLoadSettingsRequiresPprofAuthInProduction(t *testing.T) {
	t.Setenv("OBS_ENABLE_PPROF", "true")
	t.Setenv("SECURE_PPROF_BASIC_AUTH_USER", "")
	_, err := loadSettings("production")
	require.Error(t, err)
}

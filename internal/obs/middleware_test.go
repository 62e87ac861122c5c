package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tieshop/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("tieshop", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}

	samples := testutil.CollectAndCount(metrics.ReqDur)
	if samples == 0 {
		t.Fatalf("expected histogram sample")
	}

	if metrics.InFlight != nil {
		if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
			t.Fatalf("expected no in-flight requests, got %v", val)
		}
	}
}

func TestHTTPMetricsUseChiPattern(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("tieshop", nil, registry)

	r := chi.NewRouter()
	r.Use(obs.HTTPObs{Metrics: metrics}.Middleware)
	r.Get("/api/v1/orders/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if v := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/api/v1/orders/{id}", "200")); v != 1 {
		t.Fatalf("expected pattern label, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "unknown", "404")); v != 1 {
		t.Fatalf("expected unknown label for unmatched route, got %v", v)
	}
}

func TestNewHTTPMetricsReusesCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := obs.NewHTTPMetrics("tieshop", nil, registry)
	second := obs.NewHTTPMetrics("tieshop", nil, registry)
	if first.ReqTotal != second.ReqTotal {
		t.Fatalf("expected registered counter to be reused")
	}
}

func TestParseBucketsCSV(t *testing.T) {
	got := obs.ParseBucketsCSV("5, 10,x,-1,250")
	if len(got) != 3 || got[0] != 5 || got[2] != 250 {
		t.Fatalf("unexpected buckets %v", got)
	}
}

func TestDomainMetricsRegistered(t *testing.T) {
	registry := prometheus.NewRegistry()
	obs.MustRegisterDomainMetrics("tieshop", registry)

	obs.ObserveOrderCreated()
	obs.ObserveRecompute("item_added")
	obs.ObserveReportCache("dashboard", "hit")

	if v := testutil.ToFloat64(obs.OrderRecomputeTotal.WithLabelValues("item_added")); v < 1 {
		t.Fatalf("expected recompute counter to be incremented, got %v", v)
	}
	if v := testutil.ToFloat64(obs.ReportCacheTotal.WithLabelValues("dashboard", "hit")); v < 1 {
		t.Fatalf("expected cache counter to be incremented, got %v", v)
	}
}

func TestInitTracerNone(t *testing.T) {
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{Exporter: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestRequestLoggerWritesRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(obs.RequestLogger{Logger: zerolog.New(&buf)}.Middleware)
	r.Delete("/api/v1/expenses/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/expenses/9", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["route"] != "/api/v1/expenses/{id}" || line["path"] != "/api/v1/expenses/9" {
		t.Fatalf("unexpected route fields %v", line)
	}
	if line["level"] != "error" || line["message"] != "http_request_failed" {
		t.Fatalf("expected failed request at error level, got %v", line)
	}
}

func TestInitTracerRejectsUnknownExporter(t *testing.T) {
	if _, err := obs.InitTracer(context.Background(), obs.TracingConfig{Exporter: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

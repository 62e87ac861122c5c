package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdem(t *testing.T) Idem {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}
}

func TestIdemRejectsReplay(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		req.Header.Set(IdempotencyHeader, "abc")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if i == 0 {
			require.Equal(t, http.StatusCreated, rr.Code)
		} else {
			require.Equal(t, http.StatusConflict, rr.Code)
		}
	}
	require.Equal(t, 1, calls)
}

func TestIdemReleasesKeyOnFailure(t *testing.T) {
	idem := newIdem(t)
	status := http.StatusUnprocessableEntity
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set(IdempotencyHeader, "retry-me")
	h.ServeHTTP(httptest.NewRecorder(), req)

	status = http.StatusCreated
	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set(IdempotencyHeader, "retry-me")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, 2, calls)
}

func TestIdemPassThroughWithoutHeader(t *testing.T) {
	h := Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestIdemReportsInFlightDuplicate(t *testing.T) {
	idem := newIdem(t)
	var inner *httptest.ResponseRecorder
	var h http.Handler
	h = idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			dup := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", nil)
			dup.Header.Set(IdempotencyHeader, "slow")
			h.ServeHTTP(inner, dup)
		}
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/expenses", nil)
	req.Header.Set(IdempotencyHeader, "slow")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	require.Equal(t, http.StatusConflict, inner.Code)
	require.Contains(t, inner.Body.String(), "REQUEST_IN_PROGRESS")
}

func TestIdemRejectsOversizedKey(t *testing.T) {
	idem := newIdem(t)
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set(IdempotencyHeader, strings.Repeat("k", 200))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyHeader is the request header carrying the client supplied key.
const IdempotencyHeader = "Idempotency-Key"

const (
	idemPending = "pending"
	idemDone    = "done"
	maxIdemKey  = 128
)

// Idem guards write endpoints against double submission. A key is reserved
// before the handler runs and released when the handler fails, so a
// corrected resubmission goes through. Without Redis it does nothing.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

// storageKey scopes the client key to the admin and endpoint it was sent to.
func storageKey(admin string, r *http.Request, clientKey string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{admin, r.Method, r.URL.Path, clientKey}, "\x00")))
	return "tieshop:idem:" + hex.EncodeToString(sum[:])
}

func (i Idem) Middleware(next http.Handler) http.Handler {
	if i.R == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if clientKey == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(clientKey) > maxIdemKey {
			JSONError(w, http.StatusBadRequest, "BAD_REQUEST", IdempotencyHeader+" is too long", nil)
			return
		}
		admin, _ := Admin(r.Context())
		key := storageKey(admin, r, clientKey)

		reserved, err := i.R.SetNX(r.Context(), key, idemPending, i.ttl()).Result()
		if err != nil {
			JSONError(w, http.StatusServiceUnavailable, "IDEMPOTENCY_UNAVAILABLE", "could not reserve idempotency key", nil)
			return
		}
		if !reserved {
			if state, _ := i.R.Get(r.Context(), key).Result(); state == idemPending {
				JSONError(w, http.StatusConflict, "REQUEST_IN_PROGRESS", "an identical request is still being processed", nil)
				return
			}
			JSONError(w, http.StatusConflict, "DUPLICATE_SUBMISSION", "this request was already submitted", nil)
			return
		}

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ctx := context.WithoutCancel(r.Context())
		if rec.status >= http.StatusBadRequest {
			_ = i.R.Del(ctx, key).Err()
			return
		}
		_ = i.R.SetArgs(ctx, key, idemDone, redis.SetArgs{KeepTTL: true}).Err()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler throttles the routes it wraps. Requests are keyed by client IP
// unless Key is set.
type Handler struct {
	Limiter *Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// ClientIP returns the host part of RemoteAddr. chi's RealIP middleware runs
// first, so proxy headers are already applied.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func (d Decision) writeHeaders(h http.Header, now time.Time) {
	h.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
	h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
	if !d.Allowed {
		wait := math.Ceil(d.Reset.Sub(now).Seconds())
		h.Set("Retry-After", strconv.Itoa(int(max(wait, 0))))
	}
}

// Middleware answers 429 RATE_LIMITED once the key is over its limit. A
// failing limiter store never blocks logins; the error goes to OnError.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil {
		return next
	}
	key := h.Key
	if key == nil {
		key = ClientIP
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := h.Limiter.Allow(r.Context(), key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		d.writeHeaders(w.Header(), time.Now())
		if !d.Allowed {
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many attempts, try again later", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

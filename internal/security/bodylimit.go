package security

import (
	"net/http"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// BodyLimit caps request payloads. Declared oversize bodies are refused up
// front; undeclared ones fail when the handler reads past Max.
type BodyLimit struct {
	Max int64
}

// Middleware answers 413 PAYLOAD_TOO_LARGE for declared oversize bodies and
// wraps the rest in http.MaxBytesReader; common.DecodeJSON maps the read
// error to the same response.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	if b.Max <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}

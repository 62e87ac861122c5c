package audit

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Recorder records every state-changing request after it has been handled.
// Mount it after authentication so the acting admin is known.
type Recorder struct {
	Service *Service
	OnError func(error)
}

// Middleware records POST, PUT, PATCH and DELETE requests.
func (r Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.Service == nil || !r.Service.Enabled || !mutating(req.Method) {
			next.ServeHTTP(w, req)
			return
		}

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, req)

		entry := Entry{Status: rec.Status()}
		if rc := chi.RouteContext(req.Context()); rc != nil {
			entry.Route = rc.RoutePattern()
		}
		entry.ResourceID = chi.URLParam(req, "id")
		if itemID := chi.URLParam(req, "itemId"); itemID != "" {
			entry.Metadata = map[string]any{"item_id": itemID}
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), 2*time.Second)
		defer cancel()
		if err := r.Service.Record(ctx, req, entry); err != nil && r.OnError != nil {
			r.OnError(err)
		}
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}

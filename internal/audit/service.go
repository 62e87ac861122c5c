// Package audit keeps a trail of the writes admins make through the API:
// who changed which order, customer, product or expense, and with what result.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/ratelimit"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

// Store defines the database operations required for auditing.
type Store interface {
	InsertAuditLog(ctx context.Context, arg store.InsertAuditLogParams) (int64, error)
	ListAuditLogs(ctx context.Context, arg store.ListAuditLogsParams) ([]store.AuditLog, error)
	CountAuditLogs(ctx context.Context, resourceType string) (int64, error)
}

// Entry is what a handled request contributes to the trail.
type Entry struct {
	Route      string
	ResourceID string
	Status     int
	Metadata   map[string]any
}

// Service persists audit entries.
type Service struct {
	Store   Store
	Enabled bool
}

// Record stores one entry for req. The acting admin is read from the request
// context.
func (s *Service) Record(ctx context.Context, req *http.Request, e Entry) error {
	if s == nil || !s.Enabled {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := strings.TrimSpace(e.Route)
	if route == "" {
		route = req.URL.Path
	}
	status := e.Status
	if status == 0 {
		status = http.StatusOK
	}

	var admin *string
	if name, ok := common.Admin(req.Context()); ok {
		admin = &name
	}

	_, err := s.Store.InsertAuditLog(ctx, store.InsertAuditLogParams{
		Admin:        admin,
		Action:       req.Method + " " + route,
		ResourceType: ResourceType(route),
		ResourceID:   optional(e.ResourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       int32(status),
		IP:           optional(ratelimit.ClientIP(req)),
		UserAgent:    optional(req.Header.Get("User-Agent")),
		RequestID:    optional(req.Header.Get("X-Request-ID")),
		Metadata:     metadata(e.Metadata, req.URL.RawQuery),
	})
	return err
}

// List returns a page of entries, newest first, optionally for one resource type.
func (s *Service) List(ctx context.Context, resourceType string, page, perPage int) ([]store.AuditLog, int64, error) {
	rows, err := s.Store.ListAuditLogs(ctx, store.ListAuditLogsParams{
		ResourceType: resourceType,
		Limit:        int32(perPage),
		Offset:       int32(common.Offset(page, perPage)),
	})
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Store.CountAuditLogs(ctx, resourceType)
	if err != nil {
		return nil, 0, err
	}
	if rows == nil {
		rows = []store.AuditLog{}
	}
	return rows, total, nil
}

// ResourceType derives a dotted resource name from a route pattern, dropping
// the API prefix and path parameters: /api/v1/orders/{id}/items/{itemId}
// becomes "orders.items".
func ResourceType(route string) string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return "unknown"
	}
	segments := strings.Split(route, "/")
	if len(segments) >= 2 && segments[0] == "api" && segments[1] == "v1" {
		segments = segments[2:]
	}
	kept := segments[:0]
	for _, seg := range segments {
		if seg == "" || strings.HasPrefix(seg, "{") || seg == "*" {
			continue
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return "unknown"
	}
	return strings.Join(kept, ".")
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func metadata(fields map[string]any, query string) json.RawMessage {
	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	if q := strings.TrimSpace(query); q != "" {
		payload["query"] = q
	}
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

package audit

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler exposes the audit trail to admins.
type Handler struct {
	Service *Service
}

// List serves GET /api/v1/audit, newest first, optionally narrowed to one
// resource type such as "orders" or "orders.items".
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	resource := strings.TrimSpace(r.URL.Query().Get("resource"))
	page, perPage := common.ParsePagination(r, 50)
	rows, total, err := h.Service.List(r.Context(), resource, page, perPage)
	if err != nil {
		common.WriteError(w, fmt.Errorf("list audit logs: %w", err))
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

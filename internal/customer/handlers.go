package customer

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler exposes customer endpoints.
type Handler struct {
	Service  *Service
	PageSize int
}

func (h *Handler) pageSize() int {
	if h.PageSize > 0 {
		return h.PageSize
	}
	return 20
}

// List handles GET /api/v1/customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.pageSize())
	q := r.URL.Query()
	customers, total, err := h.Service.List(r.Context(), ListParams{
		Search:  q.Get("search"),
		Sort:    q.Get("sort"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       customers,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// Get handles GET /api/v1/customers/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("customer"))
		return
	}
	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Orders handles GET /api/v1/customers/{id}/orders.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("customer"))
		return
	}
	page, perPage := common.ParsePagination(r, h.pageSize())
	orders, total, err := h.Service.Orders(r.Context(), id, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.NewPagination(page, perPage, total),
	})
}

// Update handles PUT /api/v1/customers/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("customer"))
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Service.Update(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/customers/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("customer"))
		return
	}
	msg, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"message": msg})
}

package order

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler exposes order endpoints.
type Handler struct {
	Svc      *Service
	PageSize int
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.pageSize())
	params := ListParams{Page: page, PerPage: perPage, Status: r.URL.Query().Get("status")}
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.WriteError(w, common.ParseError(err))
			return
		}
		params.CustomerID = &id
	}
	orders, total, err := h.Svc.List(r.Context(), params)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": res.Order, "message": res.Message})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("order"))
		return
	}
	detail, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("order"))
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": res.Order, "message": res.Message})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("order"))
		return
	}
	msg, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"message": msg})
}

type statusRequest struct {
	Status string `json:"status"`
}

// PatchStatus moves the order to another status.
func (h *Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("order"))
		return
	}
	var req statusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.Svc.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("order"))
		return
	}
	var in ItemInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.Svc.AddItem(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, detail)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	itemID, itemOK := common.IDParam(r, "itemId")
	if !ok || !itemOK {
		common.WriteError(w, common.NotFound("order item"))
		return
	}
	var req quantityRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	detail, err := h.Svc.UpdateItem(r.Context(), id, itemID, req.Quantity)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	itemID, itemOK := common.IDParam(r, "itemId")
	if !ok || !itemOK {
		common.WriteError(w, common.NotFound("order item"))
		return
	}
	detail, err := h.Svc.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

func (h *Handler) pageSize() int {
	if h.PageSize <= 0 {
		return 20
	}
	return h.PageSize
}

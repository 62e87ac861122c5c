package expense

import (
	"net/http"
	"strconv"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler exposes expense endpoints.
type Handler struct {
	Svc *Service
}

// List handles GET /api/v1/expenses. The response also carries the
// autocomplete suggestions for the expense form.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 10)
	var orderID *int64
	if raw := r.URL.Query().Get("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			common.WriteError(w, common.ParseError(err))
			return
		}
		orderID = &id
	}
	expenses, total, err := h.Svc.List(r.Context(), orderID, page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	suggestions, err := h.Svc.Suggest(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":        expenses,
		"pagination":  common.NewPagination(page, perPage, total),
		"suggestions": suggestions,
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
	common.JSON(w, http.StatusCreated, map[string]any{"data": res.Expense, "message": res.Message})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("expense"))
		return
	}
	e, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, e)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("expense"))
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
	common.JSON(w, http.StatusOK, map[string]any{"data": res.Expense, "message": res.Message})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := common.IDParam(r, "id")
	if !ok {
		common.WriteError(w, common.NotFound("expense"))
		return
	}
	msg, err := h.Svc.Delete(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"message": msg})
}

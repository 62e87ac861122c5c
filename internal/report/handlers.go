package report

import (
	"fmt"
	"net/http"
	"time"

	"github.com/noah-isme/backend-tieshop/internal/common"
)

// Handler exposes report read endpoints.
type Handler struct {
	Svc *Service
}

// ParsePeriod reads the optional from and to query parameters. Both are
// calendar dates and to is inclusive, so the returned upper bound is the
// following midnight.
func ParsePeriod(r *http.Request, loc *time.Location) (Period, error) {
	var p Period
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		from, err := common.ParseDate(raw, loc)
		if err != nil {
			return Period{}, common.ParseError(err)
		}
		p.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := common.ParseDate(raw, loc)
		if err != nil {
			return Period{}, common.ParseError(err)
		}
		end := to.AddDate(0, 0, 1)
		p.To = &end
	}
	if p.From != nil && p.To != nil && !p.From.Before(*p.To) {
		return Period{}, common.ValidationError(map[string]string{"from": fmt.Sprintf("must not be after %s", q.Get("to"))})
	}
	return p, nil
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	out, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_NOT_CONFIGURED", "report service not configured", nil)
		return
	}
	period, err := ParsePeriod(r, h.Svc.Location)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Financial(r.Context(), period)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

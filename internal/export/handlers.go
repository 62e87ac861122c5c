package export

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/order"
	"github.com/noah-isme/backend-tieshop/internal/report"
)

const exportPageSize = 100

// OrderSource pages through orders.
type OrderSource interface {
	List(ctx context.Context, p order.ListParams) ([]order.Summary, int64, error)
}

// ReportSource produces the financial report for a period.
type ReportSource interface {
	Financial(ctx context.Context, period report.Period) (report.FinancialView, error)
}

// Handler serves spreadsheet downloads.
type Handler struct {
	OrderSource OrderSource
	Reports     ReportSource
	Location    *time.Location
	Logger      zerolog.Logger
	Now         func() time.Time
}

func (h *Handler) stamp() string {
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if h.Location != nil {
		now = now.In(h.Location)
	}
	return now.Format("20060102")
}

// Orders handles GET /api/v1/orders/export; the optional status filter
// matches the order list.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	var rows [][]any
	for page := 1; ; page++ {
		batch, total, err := h.OrderSource.List(r.Context(), order.ListParams{Page: page, PerPage: exportPageSize, Status: status})
		if err != nil {
			common.WriteError(w, err)
			return
		}
		for _, o := range batch {
			rows = append(rows, []any{
				o.OrderNumber, o.CreatedAt, o.CustomerName, o.CustomerPhone, o.Status,
				o.NumberOfTies, o.DeliveryPaymentType, o.TotalAmount, o.GrossProfit,
			})
		}
		if len(batch) == 0 || int64(page*exportPageSize) >= total {
			break
		}
	}
	sheet := Sheet{
		Name:      "Orders",
		Headers:   []string{"Order Number", "Date", "Customer", "Phone", "Status", "Ties", "Delivery Paid By", "Total Amount", "Gross Profit"},
		Rows:      rows,
		MoneyCols: []int{7, 8},
	}
	h.send(w, "orders-"+h.stamp()+".xlsx", sheet)
}

// Financial handles GET /api/v1/reports/financial/export with the same
// from and to parameters as the report itself.
func (h *Handler) Financial(w http.ResponseWriter, r *http.Request) {
	period, err := report.ParsePeriod(r, h.Location)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	view, err := h.Reports.Financial(r.Context(), period)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	summary := Sheet{
		Name:    "Summary",
		Headers: []string{"Metric", "Value"},
		Rows: [][]any{
			{"Period", periodLabel(period)},
			{"Total Revenue", view.TotalRevenue},
			{"General Expenses", view.GeneralExpenses},
			{"Order Expenses", view.OrderExpenses},
			{"Business Delivery", view.BusinessDelivery},
			{"Packaging Expenses", view.PackagingExpenses},
			{"Total Expenses", view.TotalExpenses},
			{"Net Profit", view.NetProfit},
			{"Net Margin %", view.NetMarginPercent},
			{"Expenses %", view.ExpensesPercentage},
			{"Orders", view.OrderCount},
			{"Packaging Mode", string(view.PackagingMode)},
		},
	}
	expenses := Sheet{
		Name:      "Recent Expenses",
		Headers:   []string{"Date", "Description", "Type", "Order", "Amount"},
		MoneyCols: []int{4},
	}
	for _, e := range view.RecentExpenses {
		expenses.Rows = append(expenses.Rows, []any{e.Date, e.Description, e.ExpenseType, e.OrderNumber, e.Amount})
	}
	h.send(w, "financial-report-"+h.stamp()+".xlsx", summary, expenses)
}

func (h *Handler) send(w http.ResponseWriter, filename string, sheets ...Sheet) {
	var buf bytes.Buffer
	if err := Write(&buf, sheets...); err != nil {
		h.Logger.Error().Err(err).Str("file", filename).Msg("export failed")
		common.JSONError(w, http.StatusInternalServerError, "EXPORT_FAILED", "could not build spreadsheet", nil)
		return
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func periodLabel(p report.Period) string {
	switch {
	case p.From == nil && p.To == nil:
		return "All time"
	case p.To == nil:
		return "From " + p.From.Format("02/01/2006")
	case p.From == nil:
		return "Until " + p.To.AddDate(0, 0, -1).Format("02/01/2006")
	default:
		return p.From.Format("02/01/2006") + " - " + p.To.AddDate(0, 0, -1).Format("02/01/2006")
	}
}

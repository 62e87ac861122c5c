package report_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/report"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

type stubQueries struct {
	orders       []store.ReportOrder
	expenses     []store.ReportExpense
	customers    []store.Customer
	reportCalls  int
	expenseCalls int
}

func (s *stubQueries) ListReportOrders(_ context.Context, arg store.ReportOrdersParams) ([]store.ReportOrder, error) {
	s.reportCalls++
	if len(arg.CustomerIDs) == 0 {
		return s.orders, nil
	}
	wanted := map[int64]bool{}
	for _, id := range arg.CustomerIDs {
		wanted[id] = true
	}
	var out []store.ReportOrder
	for _, o := range s.orders {
		if wanted[o.CustomerID] {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubQueries) ListReportExpenses(context.Context, *time.Time, *time.Time) ([]store.ReportExpense, error) {
	s.expenseCalls++
	return s.expenses, nil
}

func (s *stubQueries) GetOrderTotals(context.Context) (store.OrderTotals, error) {
	t := store.OrderTotals{Orders: int64(len(s.orders))}
	for _, o := range s.orders {
		t.Ties += int64(o.NumberOfTies)
	}
	return t, nil
}

func (s *stubQueries) CountCustomers(context.Context, string) (int64, error) {
	return int64(len(s.customers)), nil
}

func (s *stubQueries) GetCustomersByIDs(_ context.Context, ids []int64) ([]store.Customer, error) {
	var out []store.Customer
	for _, c := range s.customers {
		for _, id := range ids {
			if c.ID == id {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func (s *stubQueries) ListOrders(_ context.Context, arg store.ListOrdersParams) ([]store.OrderListRow, error) {
	var out []store.OrderListRow
	for i := len(s.orders) - 1; i >= 0 && len(out) < int(arg.Limit); i-- {
		o := s.orders[i]
		out = append(out, store.OrderListRow{
			Order: store.Order{
				ID:           o.ID,
				OrderNumber:  o.OrderNumber,
				CustomerID:   o.CustomerID,
				Status:       "new",
				NumberOfTies: o.NumberOfTies,
				TotalAmount:  o.TotalAmount,
				CreatedAt:    o.CreatedAt,
			},
			CustomerFirstName: "Ada",
			CustomerLastName:  "Obi",
		})
	}
	return out, nil
}

func (s *stubQueries) ListExpenses(context.Context, store.ListExpensesParams) ([]store.Expense, error) {
	return []store.Expense{{ID: 1, Description: "Rent", Amount: decimal.NewFromInt(100), ExpenseType: "rent"}}, nil
}

func (s *stubQueries) ListExpenseDescriptions(context.Context) ([]string, error) {
	return []string{"Rent"}, nil
}

func (s *stubQueries) ListExpenseTypes(context.Context) ([]string, error) {
	return nil, nil
}

func fixture() *stubQueries {
	now := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
	return &stubQueries{
		customers: []store.Customer{
			{ID: 1, FirstName: "Ada", LastName: "Obi", Phone: "08011111111"},
			{ID: 2, FirstName: "Bayo", LastName: "Ade", Phone: "08022222222"},
		},
		orders: []store.ReportOrder{
			{ID: 1, OrderNumber: "00001", CustomerID: 1, NumberOfTies: 2, TotalAmount: decimal.NewFromInt(40), CreatedAt: now.AddDate(0, -1, 0)},
			{ID: 2, OrderNumber: "00002", CustomerID: 2, NumberOfTies: 5, TotalAmount: decimal.NewFromInt(100), BusinessDeliveryAmount: decimal.NewFromInt(5), CreatedAt: now.AddDate(0, 0, -2)},
			{ID: 3, OrderNumber: "00003", CustomerID: 1, NumberOfTies: 1, TotalAmount: decimal.NewFromInt(20), CreatedAt: now.AddDate(0, 0, -1)},
		},
		expenses: []store.ReportExpense{
			{Amount: decimal.NewFromInt(10), ExpenseType: "packaging"},
		},
	}
}

func newRedisCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb, time.Minute)
}

func newService(q report.Querier, c *cache.Cache) *report.Service {
	return &report.Service{
		Q:      q,
		Cache:  c,
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC) },
	}
}

func TestFinancialCachedUntilInvalidated(t *testing.T) {
	q := fixture()
	c := newRedisCache(t)
	svc := newService(q, c)
	ctx := context.Background()

	first, err := svc.Financial(ctx, report.Period{})
	require.NoError(t, err)
	second, err := svc.Financial(ctx, report.Period{})
	require.NoError(t, err)
	require.Equal(t, 1, q.reportCalls)
	require.True(t, first.TotalRevenue.Equal(second.TotalRevenue))
	require.True(t, decimal.NewFromInt(160).Equal(second.TotalRevenue))

	require.NoError(t, c.Invalidate(ctx))
	_, err = svc.Financial(ctx, report.Period{})
	require.NoError(t, err)
	require.Equal(t, 2, q.reportCalls)
}

func TestFinancialWithoutCache(t *testing.T) {
	q := fixture()
	svc := newService(q, nil)

	view, err := svc.Financial(context.Background(), report.Period{})
	require.NoError(t, err)
	_, err = svc.Financial(context.Background(), report.Period{})
	require.NoError(t, err)

	require.Equal(t, 2, q.reportCalls)
	require.Equal(t, 3, view.OrderCount)
	require.True(t, decimal.NewFromInt(10).Equal(view.PackagingExpenses))
	require.True(t, decimal.NewFromInt(15).Equal(view.TotalExpenses))
	require.Len(t, view.RecentExpenses, 1)
	require.Equal(t, []string{"Rent"}, view.ExpenseDescriptions)
	require.NotNil(t, view.ExpenseTypes)
}

func TestDashboard(t *testing.T) {
	q := fixture()
	svc := newService(q, newRedisCache(t))

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	require.EqualValues(t, 2, d.TotalCustomers)
	require.EqualValues(t, 3, d.TotalOrders)
	require.EqualValues(t, 8, d.TotalTiesSold)
	require.Equal(t, "May 2024", d.CurrentMonth)
	require.True(t, decimal.NewFromInt(120).Equal(d.CurrentMonthRevenue))
	require.Len(t, d.RecentOrders, 3)
	require.Equal(t, "00003", d.RecentOrders[0].OrderNumber)
	require.Len(t, d.TopCustomers, 2)
	require.Equal(t, "Bayo Ade", d.TopCustomers[0].Name)
	require.True(t, decimal.NewFromInt(100).Equal(d.TopCustomers[0].LifetimeValue))
	require.Equal(t, 2, d.TopCustomers[1].TotalOrders)

	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, q.reportCalls)
}

func TestCustomerStatsFillsCustomersWithoutOrders(t *testing.T) {
	svc := newService(fixture(), nil)

	stats, err := svc.CustomerStats(context.Background(), []int64{1, 9})
	require.NoError(t, err)

	require.Equal(t, 2, stats[1].TotalOrders)
	require.Equal(t, "00003", stats[1].LatestOrderNumber)
	require.Zero(t, stats[9].TotalOrders)
	require.Equal(t, report.NoOrders, stats[9].LatestOrderNumber)
}

func TestParsePeriodIncludesToDate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/reports/financial?from=01/05/2024&to=2024-05-31", nil)

	p, err := report.ParsePeriod(req, time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *p.From)
	require.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), *p.To)

	_, err = report.ParsePeriod(httptest.NewRequest(http.MethodGet, "/?from=yesterday", nil), time.UTC)
	require.Error(t, err)
	_, err = report.ParsePeriod(httptest.NewRequest(http.MethodGet, "/?from=2024-06-02&to=2024-06-01", nil), time.UTC)
	require.Error(t, err)
}

func TestFinancialHandler(t *testing.T) {
	h := &report.Handler{Svc: newService(fixture(), nil)}
	rec := httptest.NewRecorder()

	h.Financial(rec, httptest.NewRequest(http.MethodGet, "/reports/financial", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "160", body.Data["total_revenue"])
	require.Equal(t, "separate", body.Data["packaging_mode"])
	require.EqualValues(t, 3, body.Data["order_count"])
}

package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

const (
	recentOrdersLimit   = 5
	topCustomersLimit   = 5
	recentExpensesLimit = 10
)

// Querier defines the database access required for reports.
type Querier interface {
	ListReportOrders(ctx context.Context, arg store.ReportOrdersParams) ([]store.ReportOrder, error)
	ListReportExpenses(ctx context.Context, from, to *time.Time) ([]store.ReportExpense, error)
	GetOrderTotals(ctx context.Context) (store.OrderTotals, error)
	CountCustomers(ctx context.Context, search string) (int64, error)
	GetCustomersByIDs(ctx context.Context, ids []int64) ([]store.Customer, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.OrderListRow, error)
	ListExpenses(ctx context.Context, arg store.ListExpensesParams) ([]store.Expense, error)
	ListExpenseDescriptions(ctx context.Context) ([]string, error)
	ListExpenseTypes(ctx context.Context) ([]string, error)
}

// Service provides cached access to the dashboard and the financial report.
type Service struct {
	Q         Querier
	Cache     *cache.Cache
	Packaging PackagingMode
	Location  *time.Location
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return now
}

// Period bounds a report to [From, To). Nil bounds are open.
type Period struct {
	From *time.Time
	To   *time.Time
}

func (p Period) key() string {
	format := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return format(p.From) + ":" + format(p.To)
}

// RecentOrder is a dashboard row.
type RecentOrder struct {
	ID           int64           `json:"id"`
	OrderNumber  string          `json:"order_number"`
	CustomerName string          `json:"customer_name"`
	Status       string          `json:"status"`
	NumberOfTies int32           `json:"number_of_ties"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CreatedAt    time.Time       `json:"created_at"`
}

// TopCustomer is a customer ranked by lifetime value.
type TopCustomer struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	TotalOrders   int             `json:"total_orders"`
	TotalTies     int64           `json:"total_ties_bought"`
	LifetimeValue decimal.Decimal `json:"customer_lifetime_value"`
}

// Dashboard is the landing page summary.
type Dashboard struct {
	TotalCustomers      int64           `json:"total_customers"`
	TotalOrders         int64           `json:"total_orders"`
	TotalTiesSold       int64           `json:"total_ties_sold"`
	RecentOrders        []RecentOrder   `json:"recent_orders"`
	CurrentMonthRevenue decimal.Decimal `json:"current_month_revenue"`
	CurrentMonth        string          `json:"current_month"`
	TopCustomers        []TopCustomer   `json:"top_customers"`
}

// RecentExpense is an expense row shown alongside the financial report.
type RecentExpense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseType string          `json:"expense_type"`
	OrderID     *int64          `json:"order_id"`
	OrderNumber *string         `json:"order_number"`
	Date        time.Time       `json:"date"`
}

// FinancialView is the financial report with the data the expense form needs.
type FinancialView struct {
	FinancialReport
	From                *time.Time      `json:"from"`
	To                  *time.Time      `json:"to"`
	RecentExpenses      []RecentExpense `json:"recent_expenses"`
	ExpenseDescriptions []string        `json:"expense_descriptions"`
	ExpenseTypes        []string        `json:"expense_types"`
}

// Dashboard returns the landing page summary, served from cache when possible.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s == nil || s.Q == nil {
		return Dashboard{}, fmt.Errorf("report service not configured")
	}
	now := s.now()
	var out Dashboard
	key := s.cacheKey(ctx, "dashboard", now.Format("2006-01-02"))
	if s.fromCache(ctx, "dashboard", key, &out) {
		return out, nil
	}

	customers, err := s.Q.CountCustomers(ctx, "")
	if err != nil {
		return Dashboard{}, err
	}
	totals, err := s.Q.GetOrderTotals(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	recent, err := s.Q.ListOrders(ctx, store.ListOrdersParams{Limit: recentOrdersLimit})
	if err != nil {
		return Dashboard{}, err
	}
	rows, err := s.Q.ListReportOrders(ctx, store.ReportOrdersParams{})
	if err != nil {
		return Dashboard{}, err
	}
	lines := orderLines(rows)

	out = Dashboard{
		TotalCustomers: customers,
		TotalOrders:    totals.Orders,
		TotalTiesSold:  totals.Ties,
		RecentOrders:   make([]RecentOrder, 0, len(recent)),
		TopCustomers:   []TopCustomer{},
	}
	out.CurrentMonthRevenue, out.CurrentMonth = MonthRevenue(lines, now)
	for _, o := range recent {
		out.RecentOrders = append(out.RecentOrders, RecentOrder{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: strings.TrimSpace(o.CustomerFirstName + " " + o.CustomerLastName),
			Status:       o.Status,
			NumberOfTies: o.NumberOfTies,
			TotalAmount:  o.TotalAmount,
			CreatedAt:    o.CreatedAt,
		})
	}

	top := TopCustomers(lines, topCustomersLimit)
	if len(top) > 0 {
		ids := make([]int64, 0, len(top))
		for _, c := range top {
			ids = append(ids, c.CustomerID)
		}
		found, err := s.Q.GetCustomersByIDs(ctx, ids)
		if err != nil {
			return Dashboard{}, err
		}
		byID := make(map[int64]store.Customer, len(found))
		for _, c := range found {
			byID[c.ID] = c
		}
		for _, c := range top {
			info := byID[c.CustomerID]
			out.TopCustomers = append(out.TopCustomers, TopCustomer{
				ID:            c.CustomerID,
				Name:          strings.TrimSpace(info.FirstName + " " + info.LastName),
				Phone:         info.Phone,
				TotalOrders:   c.Stats.TotalOrders,
				TotalTies:     c.Stats.TotalTiesBought,
				LifetimeValue: c.Stats.LifetimeValue,
			})
		}
	}

	s.toCache(ctx, key, out)
	return out, nil
}

// Financial returns the financial report for the period, served from cache when possible.
func (s *Service) Financial(ctx context.Context, period Period) (FinancialView, error) {
	if s == nil || s.Q == nil {
		return FinancialView{}, fmt.Errorf("report service not configured")
	}
	var out FinancialView
	key := s.cacheKey(ctx, "financial", string(s.packaging()), period.key())
	if s.fromCache(ctx, "financial", key, &out) {
		return out, nil
	}

	report, err := s.FinancialReport(ctx, period)
	if err != nil {
		return FinancialView{}, err
	}
	recent, err := s.Q.ListExpenses(ctx, store.ListExpensesParams{Limit: recentExpensesLimit})
	if err != nil {
		return FinancialView{}, err
	}
	descriptions, err := s.Q.ListExpenseDescriptions(ctx)
	if err != nil {
		return FinancialView{}, err
	}
	types, err := s.Q.ListExpenseTypes(ctx)
	if err != nil {
		return FinancialView{}, err
	}

	out = FinancialView{
		FinancialReport:     report,
		From:                period.From,
		To:                  period.To,
		RecentExpenses:      make([]RecentExpense, 0, len(recent)),
		ExpenseDescriptions: nonNil(descriptions),
		ExpenseTypes:        nonNil(types),
	}
	for _, e := range recent {
		out.RecentExpenses = append(out.RecentExpenses, RecentExpense{
			ID:          e.ID,
			Description: e.Description,
			Amount:      e.Amount,
			ExpenseType: e.ExpenseType,
			OrderID:     e.OrderID,
			OrderNumber: e.OrderNumber,
			Date:        e.Date,
		})
	}

	s.toCache(ctx, key, out)
	return out, nil
}

// FinancialReport loads orders and expenses for the period and aggregates them
// without touching the cache.
func (s *Service) FinancialReport(ctx context.Context, period Period) (FinancialReport, error) {
	orders, err := s.Q.ListReportOrders(ctx, store.ReportOrdersParams{From: period.From, To: period.To})
	if err != nil {
		return FinancialReport{}, err
	}
	expenses, err := s.Q.ListReportExpenses(ctx, period.From, period.To)
	if err != nil {
		return FinancialReport{}, err
	}
	return Financial(orderLines(orders), expenseLines(expenses), Options{Packaging: s.packaging()}), nil
}

// CustomerStats computes lifetime figures for the given customers. Customers
// without orders get zero figures.
func (s *Service) CustomerStats(ctx context.Context, ids []int64) (map[int64]CustomerStats, error) {
	out := make(map[int64]CustomerStats, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.Q.ListReportOrders(ctx, store.ReportOrdersParams{CustomerIDs: ids})
	if err != nil {
		return nil, err
	}
	grouped := ByCustomer(orderLines(rows))
	for _, id := range ids {
		stats, ok := grouped[id]
		if !ok {
			stats = Customer(nil)
		}
		out[id] = stats
	}
	return out, nil
}

func (s *Service) packaging() PackagingMode {
	if s.Packaging == PackagingLegacy {
		return PackagingLegacy
	}
	return PackagingSeparate
}

func (s *Service) cacheKey(ctx context.Context, parts ...string) string {
	if !s.Cache.Enabled() {
		return ""
	}
	key, err := s.Cache.Key(ctx, "report:"+strings.Join(parts, ":"))
	if err != nil {
		s.Logger.Warn().Err(err).Msg("report_cache_key_failed")
		return ""
	}
	return key
}

func (s *Service) fromCache(ctx context.Context, report, key string, dst any) bool {
	if key == "" {
		return false
	}
	ok, err := s.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.Logger.Warn().Err(err).Str("report", report).Msg("report_cache_read_failed")
		obs.ObserveReportCache(report, "error")
		return false
	}
	if ok {
		obs.ObserveReportCache(report, "hit")
		return true
	}
	obs.ObserveReportCache(report, "miss")
	return false
}

func (s *Service) toCache(ctx context.Context, key string, v any) {
	if key == "" {
		return
	}
	if err := s.Cache.SetJSON(ctx, key, v); err != nil {
		s.Logger.Warn().Err(err).Msg("report_cache_write_failed")
	}
}

func orderLines(rows []store.ReportOrder) []OrderLine {
	lines := make([]OrderLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, OrderLine{
			OrderNumber:      r.OrderNumber,
			CustomerID:       r.CustomerID,
			NumberOfTies:     int64(r.NumberOfTies),
			TotalAmount:      r.TotalAmount,
			DeliveryFee:      r.DeliveryFee,
			CustomerDelivery: r.CustomerDeliveryAmount,
			BusinessDelivery: r.BusinessDeliveryAmount,
			ItemCost:         r.ItemCost,
			CreatedAt:        r.CreatedAt,
		})
	}
	return lines
}

func expenseLines(rows []store.ReportExpense) []ExpenseLine {
	lines := make([]ExpenseLine, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, ExpenseLine{Amount: r.Amount, Type: r.ExpenseType, OrderLinked: r.OrderID != nil})
	}
	return lines
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// Package report rolls orders and expenses up into customer lifetime figures,
// the business-wide financial report and the dashboard. The aggregation
// functions are pure; Service adds loading and caching.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/money"
)

// NoOrders is reported as the latest order number of a customer without orders.
const NoOrders = "No orders"

// PackagingType is the expense type counted as packaging.
const PackagingType = "packaging"

// OrderLine is the slice of an order the aggregations need. ItemCost is the
// sum of quantity × product cost price over the order's items.
type OrderLine struct {
	OrderNumber      string
	CustomerID       int64
	NumberOfTies     int64
	TotalAmount      decimal.Decimal
	DeliveryFee      decimal.Decimal
	CustomerDelivery decimal.Decimal
	BusinessDelivery decimal.Decimal
	ItemCost         decimal.Decimal
	CreatedAt        time.Time
}

// ExpenseLine is the slice of an expense the aggregations need.
type ExpenseLine struct {
	Amount      decimal.Decimal
	Type        string
	OrderLinked bool
}

// CustomerStats are the lifetime figures of one customer.
type CustomerStats struct {
	TotalOrders                 int             `json:"total_orders"`
	TotalTiesBought             int64           `json:"total_ties_bought"`
	TotalCostOfTies             decimal.Decimal `json:"total_cost_of_ties"`
	TotalDeliveryPaidByCustomer decimal.Decimal `json:"total_delivery_paid_by_customer"`
	TotalDeliveryPaidByBusiness decimal.Decimal `json:"total_delivery_paid_by_business"`
	TotalDeliveryFees           decimal.Decimal `json:"total_delivery_fees"`
	TotalAmountPaid             decimal.Decimal `json:"total_amount_paid"`
	LifetimeValue               decimal.Decimal `json:"customer_lifetime_value"`
	SellingPricePerTie          decimal.Decimal `json:"selling_price_per_tie"`
	CostPricePerTie             decimal.Decimal `json:"cost_price_per_tie"`
	ProfitMade                  decimal.Decimal `json:"profit_made"`
	FirstOrderDate              *time.Time      `json:"first_order_date"`
	LatestOrderNumber           string          `json:"latest_order_number"`
}

// Customer computes lifetime figures from all orders of one customer.
// TotalCostOfTies is the revenue the customer generated; the name is kept
// for continuity with historical reports.
func Customer(orders []OrderLine) CustomerStats {
	stats := CustomerStats{
		TotalCostOfTies:             decimal.Zero,
		TotalDeliveryPaidByCustomer: decimal.Zero,
		TotalDeliveryPaidByBusiness: decimal.Zero,
		TotalDeliveryFees:           decimal.Zero,
		LatestOrderNumber:           NoOrders,
	}
	itemCost := decimal.Zero
	var latest time.Time
	for i, o := range orders {
		stats.TotalOrders++
		stats.TotalTiesBought += o.NumberOfTies
		stats.TotalCostOfTies = stats.TotalCostOfTies.Add(o.TotalAmount)
		stats.TotalDeliveryPaidByCustomer = stats.TotalDeliveryPaidByCustomer.Add(o.CustomerDelivery)
		stats.TotalDeliveryPaidByBusiness = stats.TotalDeliveryPaidByBusiness.Add(o.BusinessDelivery)
		stats.TotalDeliveryFees = stats.TotalDeliveryFees.Add(o.DeliveryFee)
		itemCost = itemCost.Add(o.ItemCost)

		if stats.FirstOrderDate == nil || o.CreatedAt.Before(*stats.FirstOrderDate) {
			first := orders[i].CreatedAt
			stats.FirstOrderDate = &first
		}
		if i == 0 || o.CreatedAt.After(latest) {
			latest = o.CreatedAt
			stats.LatestOrderNumber = o.OrderNumber
		}
	}
	stats.TotalAmountPaid = stats.TotalCostOfTies.Add(stats.TotalDeliveryPaidByCustomer)
	stats.LifetimeValue = stats.TotalAmountPaid
	stats.SellingPricePerTie = money.PerUnit(stats.TotalAmountPaid.Sub(stats.TotalDeliveryPaidByCustomer), stats.TotalTiesBought).Round(2)
	stats.CostPricePerTie = money.PerUnit(itemCost, stats.TotalTiesBought).Round(2)
	stats.ProfitMade = stats.TotalCostOfTies.Sub(itemCost).Sub(stats.TotalDeliveryPaidByBusiness)
	return stats
}

// PackagingMode decides whether packaging expenses are also counted in the
// general and order buckets.
type PackagingMode string

const (
	// PackagingSeparate counts packaging-typed expenses only in the packaging bucket.
	PackagingSeparate PackagingMode = "separate"
	// PackagingLegacy counts them in the packaging bucket and again in the
	// general or order bucket, reproducing historical totals.
	PackagingLegacy PackagingMode = "legacy"
)

// FinancialReport is the business-wide profit and loss summary.
type FinancialReport struct {
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	GeneralExpenses    decimal.Decimal `json:"general_expenses"`
	OrderExpenses      decimal.Decimal `json:"order_expenses"`
	BusinessDelivery   decimal.Decimal `json:"business_delivery"`
	PackagingExpenses  decimal.Decimal `json:"packaging_expenses"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	NetMarginPercent   decimal.Decimal `json:"net_margin_percent"`
	ExpensesPercentage decimal.Decimal `json:"expenses_percentage"`
	OrderCount         int             `json:"order_count"`
	PackagingMode      PackagingMode   `json:"packaging_mode"`
}

// IsPackaging reports whether an expense type denotes packaging. Only the
// exact tag matches; custom types such as "Packaging" are ordinary expenses.
func IsPackaging(expenseType string) bool {
	return expenseType == PackagingType
}

// Options tunes the financial report.
type Options struct {
	Packaging PackagingMode
}

// Financial computes the financial report. Percentages are zero when there
// is no revenue.
func Financial(orders []OrderLine, expenses []ExpenseLine, opts Options) FinancialReport {
	mode := opts.Packaging
	if mode != PackagingLegacy {
		mode = PackagingSeparate
	}
	r := FinancialReport{
		TotalRevenue:      decimal.Zero,
		GeneralExpenses:   decimal.Zero,
		OrderExpenses:     decimal.Zero,
		BusinessDelivery:  decimal.Zero,
		PackagingExpenses: decimal.Zero,
		OrderCount:        len(orders),
		PackagingMode:     mode,
	}
	for _, o := range orders {
		r.TotalRevenue = r.TotalRevenue.Add(o.TotalAmount)
		r.BusinessDelivery = r.BusinessDelivery.Add(o.BusinessDelivery)
	}
	for _, e := range expenses {
		packaging := IsPackaging(e.Type)
		if packaging {
			r.PackagingExpenses = r.PackagingExpenses.Add(e.Amount)
			if mode == PackagingSeparate {
				continue
			}
		}
		if e.OrderLinked {
			r.OrderExpenses = r.OrderExpenses.Add(e.Amount)
		} else {
			r.GeneralExpenses = r.GeneralExpenses.Add(e.Amount)
		}
	}
	r.TotalExpenses = r.GeneralExpenses.Add(r.OrderExpenses).Add(r.BusinessDelivery).Add(r.PackagingExpenses)
	r.NetProfit = r.TotalRevenue.Sub(r.TotalExpenses)
	r.NetMarginPercent = money.Percent(r.NetProfit, r.TotalRevenue).Round(2)
	r.ExpensesPercentage = money.Percent(r.TotalExpenses, r.TotalRevenue).Round(2)
	return r
}

// CustomerValue pairs a customer id with its lifetime figures.
type CustomerValue struct {
	CustomerID int64
	Stats      CustomerStats
}

// ByCustomer groups orders per customer and computes each customer's stats.
func ByCustomer(orders []OrderLine) map[int64]CustomerStats {
	grouped := map[int64][]OrderLine{}
	for _, o := range orders {
		grouped[o.CustomerID] = append(grouped[o.CustomerID], o)
	}
	out := make(map[int64]CustomerStats, len(grouped))
	for id, lines := range grouped {
		out[id] = Customer(lines)
	}
	return out
}

// TopCustomers ranks customers with orders by lifetime value, highest first.
// Ties are broken by customer id so the ranking is stable.
func TopCustomers(orders []OrderLine, n int) []CustomerValue {
	stats := ByCustomer(orders)
	ranked := make([]CustomerValue, 0, len(stats))
	for id, s := range stats {
		ranked = append(ranked, CustomerValue{CustomerID: id, Stats: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Stats.LifetimeValue.Cmp(ranked[j].Stats.LifetimeValue); c != 0 {
			return c > 0
		}
		return ranked[i].CustomerID < ranked[j].CustomerID
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// MonthRevenue sums the revenue of orders placed from the first day of now's
// month onwards and returns it with a label such as "May 2024".
func MonthRevenue(orders []OrderLine, now time.Time) (decimal.Decimal, string) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	total := decimal.Zero
	for _, o := range orders {
		if !o.CreatedAt.Before(start) {
			total = total.Add(o.TotalAmount)
		}
	}
	return total, start.Format("Jan 2006")
}

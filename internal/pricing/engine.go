package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/money"
)

// Money is a fixed-point monetary value with two fraction digits.
type Money = decimal.Decimal

// DeliveryPolicy records which party bears the delivery fee of an order.
type DeliveryPolicy string

const (
	// DeliveryCustomer means the customer paid the whole delivery fee.
	DeliveryCustomer DeliveryPolicy = "customer"
	// DeliveryBusiness means the business paid the whole delivery fee.
	DeliveryBusiness DeliveryPolicy = "business"
	// DeliveryShared means the fee was split between customer and business.
	DeliveryShared DeliveryPolicy = "shared"
)

// Valid reports whether p is one of the known policies.
func (p DeliveryPolicy) Valid() bool {
	switch p {
	case DeliveryCustomer, DeliveryBusiness, DeliveryShared:
		return true
	}
	return false
}

// Item describes a line item used for the totals calculation.
type Item struct {
	Qty       int
	UnitPrice Money
	UnitCost  Money
}

// Subtotal is Qty × UnitPrice.
func (it Item) Subtotal() Money {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// CostTotal is Qty × UnitCost.
func (it Item) CostTotal() Money {
	return it.UnitCost.Mul(decimal.NewFromInt(int64(it.Qty)))
}

// Delivery carries the delivery-payment fields of an order.
type Delivery struct {
	Policy         DeliveryPolicy
	Fee            Money
	CustomerAmount Money
	BusinessAmount Money
}

// Summary aggregates the derived monetary fields of an order.
type Summary struct {
	Quantity    int
	TotalAmount Money
	TotalCost   Money
	BaseProfit  Money
	GrossProfit Money
}

// MarginPercent returns GrossProfit as a percentage of TotalAmount, or zero
// when there is no revenue.
func (s Summary) MarginPercent() Money {
	return money.Percent(s.GrossProfit, s.TotalAmount)
}

// Compute derives order totals from its items and delivery policy. Items with a
// non-positive quantity contribute nothing.
func Compute(items []Item, delivery Delivery) Summary {
	var (
		qty   int
		total = decimal.Zero
		cost  = decimal.Zero
	)
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		qty += it.Qty
		total = total.Add(it.Subtotal())
		cost = cost.Add(it.CostTotal())
	}
	base := total.Sub(cost)
	return Summary{
		Quantity:    qty,
		TotalAmount: total,
		TotalCost:   cost,
		BaseProfit:  base,
		GrossProfit: GrossProfit(base, delivery),
	}
}

// GrossProfit deducts the business's share of delivery from base profit.
func GrossProfit(base Money, delivery Delivery) Money {
	switch delivery.Policy {
	case DeliveryBusiness:
		return base.Sub(delivery.Fee)
	case DeliveryShared:
		return base.Sub(delivery.BusinessAmount)
	default:
		return base
	}
}

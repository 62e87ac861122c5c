package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/pricing"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusReturned   Status = "returned"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusShipped, StatusDelivered, StatusReturned:
		return true
	}
	return false
}

// CustomerRef is the customer block embedded in order responses.
type CustomerRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email,omitempty"`
	Address   string `json:"address,omitempty"`
}

// Item is an order line with its derived amounts.
type Item struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
}

// Detail is the full representation of an order.
type Detail struct {
	ID                     int64           `json:"id"`
	OrderNumber            string          `json:"order_number"`
	Status                 string          `json:"status"`
	Customer               CustomerRef     `json:"customer"`
	NumberOfTies           int32           `json:"number_of_ties"`
	TotalAmount            decimal.Decimal `json:"total_amount"`
	TotalCost              decimal.Decimal `json:"total_cost"`
	GrossProfit            decimal.Decimal `json:"gross_profit"`
	ProfitMarginPercent    decimal.Decimal `json:"profit_margin_percent"`
	DeliveryFee            decimal.Decimal `json:"delivery_fee"`
	DeliveryPaymentType    string          `json:"delivery_payment_type"`
	CustomerDeliveryAmount decimal.Decimal `json:"customer_delivery_amount"`
	BusinessDeliveryAmount decimal.Decimal `json:"business_delivery_amount"`
	PackagingBoxes         int32           `json:"packaging_boxes"`
	Items                  []Item          `json:"items"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// Summary is the list representation of an order.
type Summary struct {
	ID                  int64           `json:"id"`
	OrderNumber         string          `json:"order_number"`
	Status              string          `json:"status"`
	CustomerID          int64           `json:"customer_id"`
	CustomerName        string          `json:"customer_name"`
	CustomerPhone       string          `json:"customer_phone"`
	NumberOfTies        int32           `json:"number_of_ties"`
	TotalAmount         decimal.Decimal `json:"total_amount"`
	GrossProfit         decimal.Decimal `json:"gross_profit"`
	DeliveryPaymentType string          `json:"delivery_payment_type"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Result pairs an order with the confirmation message shown to the admin.
type Result struct {
	Order   Detail `json:"order"`
	Message string `json:"message"`
}

func deliveryOf(o store.Order) pricing.Delivery {
	return pricing.Delivery{
		Policy:         pricing.DeliveryPolicy(o.DeliveryPaymentType),
		Fee:            o.DeliveryFee,
		CustomerAmount: o.CustomerDeliveryAmount,
		BusinessAmount: o.BusinessDeliveryAmount,
	}
}

func pricingItems(items []store.OrderItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Item{Qty: int(it.Quantity), UnitPrice: it.UnitPrice, UnitCost: it.CostPrice})
	}
	return out
}

func toDetail(o store.Order, c store.Customer, items []store.OrderItem) Detail {
	d := Detail{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Customer: CustomerRef{
			ID:        c.ID,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Phone:     c.Phone,
			Email:     c.Email,
			Address:   c.Address,
		},
		NumberOfTies:           o.NumberOfTies,
		TotalAmount:            o.TotalAmount,
		TotalCost:              o.TotalCost,
		GrossProfit:            o.GrossProfit,
		ProfitMarginPercent:    pricing.Summary{TotalAmount: o.TotalAmount, GrossProfit: o.GrossProfit}.MarginPercent().Round(2),
		DeliveryFee:            o.DeliveryFee,
		DeliveryPaymentType:    o.DeliveryPaymentType,
		CustomerDeliveryAmount: o.CustomerDeliveryAmount,
		BusinessDeliveryAmount: o.BusinessDeliveryAmount,
		PackagingBoxes:         o.PackagingBoxes,
		Items:                  make([]Item, 0, len(items)),
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
	}
	for _, it := range items {
		p := pricing.Item{Qty: int(it.Quantity), UnitPrice: it.UnitPrice, UnitCost: it.CostPrice}
		d.Items = append(d.Items, Item{
			ID:        it.ID,
			ProductID: it.ProductID,
			SKU:       it.ProductSKU,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			CostPrice: it.CostPrice,
			Subtotal:  p.Subtotal(),
			Cost:      p.CostTotal(),
			Profit:    p.Subtotal().Sub(p.CostTotal()),
		})
	}
	return d
}

func toSummary(r store.OrderListRow) Summary {
	name := r.CustomerFirstName
	if r.CustomerLastName != "" {
		name += " " + r.CustomerLastName
	}
	return Summary{
		ID:                  r.ID,
		OrderNumber:         r.OrderNumber,
		Status:              r.Status,
		CustomerID:          r.CustomerID,
		CustomerName:        name,
		CustomerPhone:       r.CustomerPhone,
		NumberOfTies:        r.NumberOfTies,
		TotalAmount:         r.TotalAmount,
		GrossProfit:         r.GrossProfit,
		DeliveryPaymentType: r.DeliveryPaymentType,
		CreatedAt:           r.CreatedAt,
	}
}

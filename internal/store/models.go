package store

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row of products.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	Sold        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Customer is a row of customers.
type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
}

// CustomerRow is a customer with the aggregates used for list sorting.
type CustomerRow struct {
	Customer
	FirstOrderAt *time.Time
	TotalTies    int64
}

// Order is a row of orders.
type Order struct {
	ID                     int64
	OrderNumber            string
	CustomerID             int64
	Status                 string
	NumberOfTies           int32
	TotalAmount            decimal.Decimal
	TotalCost              decimal.Decimal
	GrossProfit            decimal.Decimal
	DeliveryFee            decimal.Decimal
	DeliveryPaymentType    string
	CustomerDeliveryAmount decimal.Decimal
	BusinessDeliveryAmount decimal.Decimal
	PackagingBoxes         int32
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// OrderListRow is an order joined with its customer's name and phone.
type OrderListRow struct {
	Order
	CustomerFirstName string
	CustomerLastName  string
	CustomerPhone     string
}

// OrderItem is a row of order_items joined with the current product prices.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Quantity    int32
	ProductSKU  string
	ProductName string
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
}

// Expense is a row of expenses.
type Expense struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	ExpenseType string
	OrderID     *int64
	OrderNumber *string
	Date        time.Time
}

// Admin is a row of admins.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ReportOrder carries the order fields consumed by aggregations plus the
// cost of its items at current product cost prices.
type ReportOrder struct {
	ID                     int64
	OrderNumber            string
	CustomerID             int64
	NumberOfTies           int32
	TotalAmount            decimal.Decimal
	TotalCost              decimal.Decimal
	GrossProfit            decimal.Decimal
	DeliveryFee            decimal.Decimal
	DeliveryPaymentType    string
	CustomerDeliveryAmount decimal.Decimal
	BusinessDeliveryAmount decimal.Decimal
	ItemCost               decimal.Decimal
	CreatedAt              time.Time
}

// ReportExpense carries the expense fields consumed by aggregations.
type ReportExpense struct {
	Amount      decimal.Decimal
	ExpenseType string
	OrderID     *int64
	Date        time.Time
}

// AuditLog is a row of audit_logs.
type AuditLog struct {
	ID           int64           `json:"id"`
	Admin        *string         `json:"admin"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int32           `json:"status"`
	IP           *string         `json:"ip"`
	UserAgent    *string         `json:"user_agent"`
	RequestID    *string         `json:"request_id"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

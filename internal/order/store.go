package order

import (
	"context"

	"github.com/noah-isme/backend-tieshop/internal/store"
)

// Querier lists the statements the order service runs.
type Querier interface {
	GetCustomer(ctx context.Context, id int64) (store.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (store.Customer, error)
	CreateCustomer(ctx context.Context, arg store.CreateCustomerParams) (store.Customer, error)
	UpdateCustomer(ctx context.Context, arg store.UpdateCustomerParams) (store.Customer, error)

	GetProduct(ctx context.Context, id int64) (store.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (store.Product, error)

	CreateOrder(ctx context.Context, arg store.CreateOrderParams) (store.Order, error)
	GetOrder(ctx context.Context, id int64) (store.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (store.Order, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.OrderListRow, error)
	CountOrders(ctx context.Context, customerID *int64, status string) (int64, error)
	UpdateOrder(ctx context.Context, arg store.UpdateOrderParams) (store.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (store.Order, error)
	SetOrderTotals(ctx context.Context, arg store.SetOrderTotalsParams) (store.Order, error)
	DeleteOrder(ctx context.Context, id int64) (int64, error)
	ListOrderNumbers(ctx context.Context) ([]string, error)
	ListOrderIDs(ctx context.Context) ([]int64, error)

	ListOrderItems(ctx context.Context, orderID int64) ([]store.OrderItem, error)
	AddOrderItem(ctx context.Context, orderID, productID int64, quantity int32) (int64, error)
	UpdateOrderItemQuantity(ctx context.Context, orderID, itemID int64, quantity int32) (int64, error)
	DeleteOrderItem(ctx context.Context, orderID, itemID int64) (int64, error)
	DeleteOrderItems(ctx context.Context, orderID int64) error

	LockCounter(ctx context.Context, name string) (int64, bool, error)
	SeedCounter(ctx context.Context, name string, value int64) error
	SetCounter(ctx context.Context, name string, value int64) error
}

// Store is a Querier that can also run a function inside a transaction.
type Store interface {
	Querier
	InTx(ctx context.Context, fn func(Querier) error) error
}

type pgStore struct {
	*store.Store
}

// NewPostgresStore adapts the shared store to the order Store interface.
func NewPostgresStore(s *store.Store) Store {
	return pgStore{Store: s}
}

func (p pgStore) InTx(ctx context.Context, fn func(Querier) error) error {
	return p.Store.InTx(ctx, func(q *store.Queries) error { return fn(q) })
}

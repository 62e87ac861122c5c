package order

import (
	"context"
	"sort"
	"time"

	"github.com/noah-isme/backend-tieshop/internal/store"
)

type fakeItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int32
}

type fakeStore struct {
	products  map[int64]store.Product
	customers map[int64]store.Customer
	orders    map[int64]store.Order
	items     map[int64]fakeItem
	counters  map[string]int64
	nextID    int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  map[int64]store.Product{},
		customers: map[int64]store.Customer{},
		orders:    map[int64]store.Order{},
		items:     map[int64]fakeItem{},
		counters:  map[string]int64{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (f *fakeStore) InTx(ctx context.Context, fn func(Querier) error) error {
	snapshot := fakeStore{
		products:  cloneMap(f.products),
		customers: cloneMap(f.customers),
		orders:    cloneMap(f.orders),
		items:     cloneMap(f.items),
		counters:  cloneMap(f.counters),
		nextID:    f.nextID,
	}
	if err := fn(f); err != nil {
		*f = snapshot
		return err
	}
	return nil
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addProduct(sku string, price, cost string) store.Product {
	p := store.Product{ID: f.id(), SKU: sku, Name: "Tie " + sku, UnitPrice: dec(price), CostPrice: dec(cost), CreatedAt: time.Now()}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) GetCustomer(_ context.Context, id int64) (store.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return store.Customer{}, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetCustomerByPhone(_ context.Context, phone string) (store.Customer, error) {
	for _, c := range f.customers {
		if c.Phone == phone {
			return c, nil
		}
	}
	return store.Customer{}, store.ErrNotFound
}

func (f *fakeStore) CreateCustomer(_ context.Context, arg store.CreateCustomerParams) (store.Customer, error) {
	c := store.Customer{ID: f.id(), FirstName: arg.FirstName, LastName: arg.LastName, Email: arg.Email, Phone: arg.Phone, Address: arg.Address, CreatedAt: time.Now()}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) UpdateCustomer(_ context.Context, arg store.UpdateCustomerParams) (store.Customer, error) {
	c, ok := f.customers[arg.ID]
	if !ok {
		return store.Customer{}, store.ErrNotFound
	}
	c.FirstName, c.LastName, c.Email, c.Phone, c.Address = arg.FirstName, arg.LastName, arg.Email, arg.Phone, arg.Address
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id int64) (store.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetProductBySKU(_ context.Context, sku string) (store.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return store.Product{}, store.ErrNotFound
}

func (f *fakeStore) CreateOrder(_ context.Context, arg store.CreateOrderParams) (store.Order, error) {
	o := store.Order{
		ID:                     f.id(),
		OrderNumber:            arg.OrderNumber,
		CustomerID:             arg.CustomerID,
		Status:                 arg.Status,
		DeliveryPaymentType:    arg.DeliveryPaymentType,
		DeliveryFee:            arg.DeliveryFee,
		CustomerDeliveryAmount: arg.CustomerDeliveryAmount,
		BusinessDeliveryAmount: arg.BusinessDeliveryAmount,
		PackagingBoxes:         arg.PackagingBoxes,
		CreatedAt:              arg.CreatedAt,
		UpdatedAt:              time.Now(),
	}
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id int64) (store.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) GetOrderForUpdate(ctx context.Context, id int64) (store.Order, error) {
	return f.GetOrder(ctx, id)
}

func (f *fakeStore) ListOrders(_ context.Context, arg store.ListOrdersParams) ([]store.OrderListRow, error) {
	var rows []store.OrderListRow
	for _, o := range f.orders {
		if arg.CustomerID != nil && o.CustomerID != *arg.CustomerID {
			continue
		}
		if arg.Status != "" && o.Status != arg.Status {
			continue
		}
		c := f.customers[o.CustomerID]
		rows = append(rows, store.OrderListRow{Order: o, CustomerFirstName: c.FirstName, CustomerLastName: c.LastName, CustomerPhone: c.Phone})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.After(rows[j].CreatedAt)
		}
		return rows[i].ID > rows[j].ID
	})
	start := int(arg.Offset)
	if start > len(rows) {
		return nil, nil
	}
	end := start + int(arg.Limit)
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], nil
}

func (f *fakeStore) CountOrders(ctx context.Context, customerID *int64, status string) (int64, error) {
	rows, _ := f.ListOrders(ctx, store.ListOrdersParams{CustomerID: customerID, Status: status, Limit: 1 << 30})
	return int64(len(rows)), nil
}

func (f *fakeStore) UpdateOrder(_ context.Context, arg store.UpdateOrderParams) (store.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	o.CustomerID = arg.CustomerID
	o.Status = arg.Status
	o.DeliveryPaymentType = arg.DeliveryPaymentType
	o.DeliveryFee = arg.DeliveryFee
	o.CustomerDeliveryAmount = arg.CustomerDeliveryAmount
	o.BusinessDeliveryAmount = arg.BusinessDeliveryAmount
	o.PackagingBoxes = arg.PackagingBoxes
	o.CreatedAt = arg.CreatedAt
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, id int64, status string) (store.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	o.Status = status
	f.orders[id] = o
	return o, nil
}

func (f *fakeStore) SetOrderTotals(_ context.Context, arg store.SetOrderTotalsParams) (store.Order, error) {
	o, ok := f.orders[arg.ID]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	o.NumberOfTies = arg.NumberOfTies
	o.TotalAmount = arg.TotalAmount
	o.TotalCost = arg.TotalCost
	o.GrossProfit = arg.GrossProfit
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, id int64) (int64, error) {
	if _, ok := f.orders[id]; !ok {
		return 0, nil
	}
	delete(f.orders, id)
	for itemID, it := range f.items {
		if it.OrderID == id {
			delete(f.items, itemID)
		}
	}
	return 1, nil
}

func (f *fakeStore) ListOrderNumbers(context.Context) ([]string, error) {
	out := make([]string, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o.OrderNumber)
	}
	return out, nil
}

func (f *fakeStore) ListOrderIDs(context.Context) ([]int64, error) {
	out := make([]int64, 0, len(f.orders))
	for id := range f.orders {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (f *fakeStore) ListOrderItems(_ context.Context, orderID int64) ([]store.OrderItem, error) {
	var out []store.OrderItem
	for _, it := range f.items {
		if it.OrderID != orderID {
			continue
		}
		p := f.products[it.ProductID]
		out = append(out, store.OrderItem{
			ID: it.ID, OrderID: it.OrderID, ProductID: it.ProductID, Quantity: it.Quantity,
			ProductSKU: p.SKU, ProductName: p.Name, UnitPrice: p.UnitPrice, CostPrice: p.CostPrice,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) AddOrderItem(_ context.Context, orderID, productID int64, quantity int32) (int64, error) {
	it := fakeItem{ID: f.id(), OrderID: orderID, ProductID: productID, Quantity: quantity}
	f.items[it.ID] = it
	return it.ID, nil
}

func (f *fakeStore) UpdateOrderItemQuantity(_ context.Context, orderID, itemID int64, quantity int32) (int64, error) {
	it, ok := f.items[itemID]
	if !ok || it.OrderID != orderID {
		return 0, nil
	}
	it.Quantity = quantity
	f.items[itemID] = it
	return 1, nil
}

func (f *fakeStore) DeleteOrderItem(_ context.Context, orderID, itemID int64) (int64, error) {
	it, ok := f.items[itemID]
	if !ok || it.OrderID != orderID {
		return 0, nil
	}
	delete(f.items, itemID)
	return 1, nil
}

func (f *fakeStore) DeleteOrderItems(_ context.Context, orderID int64) error {
	for id, it := range f.items {
		if it.OrderID == orderID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeStore) LockCounter(_ context.Context, name string) (int64, bool, error) {
	v, ok := f.counters[name]
	return v, ok, nil
}

func (f *fakeStore) SeedCounter(_ context.Context, name string, value int64) error {
	if _, ok := f.counters[name]; !ok {
		f.counters[name] = value
	}
	return nil
}

func (f *fakeStore) SetCounter(_ context.Context, name string, value int64) error {
	f.counters[name] = value
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

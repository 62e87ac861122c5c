package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/money"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/pricing"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

// Recompute triggers recorded in metrics and logs.
const (
	TriggerCreated     = "created"
	TriggerUpdated     = "updated"
	TriggerStatus      = "status"
	TriggerItemAdded   = "item_added"
	TriggerItemUpdated = "item_updated"
	TriggerItemRemoved = "item_removed"
	TriggerBackfill    = "backfill"
)

// Service owns order writes. Every mutation of an order or its items
// recomputes the totals inside the same transaction.
type Service struct {
	Store    Store
	Cache    cache.Invalidator
	Logger   zerolog.Logger
	Location *time.Location
	Currency string
	Now      func() time.Time
}

// ListParams filters the order list.
type ListParams struct {
	Page       int
	PerPage    int
	CustomerID *int64
	Status     string
}

func (s *Service) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *Service) today() time.Time {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now().In(s.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc())
}

func (s *Service) amount(d pricing.Money) string {
	symbol := s.Currency
	if symbol == "" {
		symbol = "₦"
	}
	return symbol + money.Format(d, 2)
}

// Create stores a new order for the customer identified by phone, creating
// the customer on first use.
func (s *Service) Create(ctx context.Context, in Input) (Result, error) {
	d, err := parseInput(in, s.loc())
	if err != nil {
		return Result{}, err
	}
	orderDate := s.today()
	if d.OrderDate != nil {
		orderDate = *d.OrderDate
	}
	status := d.Status
	if status == "" {
		status = StatusNew
	}

	var detail Detail
	err = s.Store.InTx(ctx, func(q Querier) error {
		products, err := resolveProducts(ctx, q, d.Items)
		if err != nil {
			return err
		}
		cust, err := customerForPhone(ctx, q, d)
		if err != nil {
			return err
		}
		number, err := nextOrderNumber(ctx, q)
		if err != nil {
			return err
		}
		ord, err := q.CreateOrder(ctx, store.CreateOrderParams{
			OrderNumber:            number,
			CustomerID:             cust.ID,
			Status:                 string(status),
			DeliveryPaymentType:    string(d.Delivery.Policy),
			DeliveryFee:            d.Delivery.Fee,
			CustomerDeliveryAmount: d.Delivery.CustomerAmount,
			BusinessDeliveryAmount: d.Delivery.BusinessAmount,
			PackagingBoxes:         d.PackagingBoxes,
			CreatedAt:              orderDate,
		})
		if err != nil {
			return err
		}
		if err := addItems(ctx, q, ord.ID, products, d.Items); err != nil {
			return err
		}
		detail, err = recompute(ctx, q, ord, TriggerCreated, true)
		return err
	})
	if err != nil {
		return Result{}, mapError(err)
	}

	obs.ObserveOrderCreated()
	s.invalidate(ctx)
	s.Logger.Info().
		Str("order_number", detail.OrderNumber).
		Int64("customer_id", detail.Customer.ID).
		Str("total_amount", detail.TotalAmount.StringFixed(2)).
		Msg("order created")

	name := strings.TrimSpace(detail.Customer.FirstName + " " + detail.Customer.LastName)
	return Result{
		Order:   detail,
		Message: fmt.Sprintf("Order %s created successfully for %s! Total: %s", detail.OrderNumber, name, s.amount(detail.TotalAmount)),
	}, nil
}

// Get loads an order with its customer and items.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	ord, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return Detail{}, mapError(err)
	}
	detail, err := load(ctx, s.Store, ord)
	if err != nil {
		return Detail{}, mapError(err)
	}
	return detail, nil
}

// List returns orders newest first with the total count for pagination.
func (s *Service) List(ctx context.Context, p ListParams) ([]Summary, int64, error) {
	if p.PerPage <= 0 {
		p.PerPage = 20
	}
	if p.Status != "" && !Status(p.Status).Valid() {
		return nil, 0, common.ValidationError(map[string]string{"status": "is invalid"})
	}
	total, err := s.Store.CountOrders(ctx, p.CustomerID, p.Status)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Store.ListOrders(ctx, store.ListOrdersParams{
		CustomerID: p.CustomerID,
		Status:     p.Status,
		Limit:      int32(p.PerPage),
		Offset:     int32(common.Offset(p.Page, p.PerPage)),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, toSummary(r))
	}
	return out, total, nil
}

// Update replaces the customer details, delivery fields, date, status and
// items of an order. The order number never changes.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Result, error) {
	d, err := parseInput(in, s.loc())
	if err != nil {
		return Result{}, err
	}

	var detail Detail
	err = s.Store.InTx(ctx, func(q Querier) error {
		ord, err := q.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		products, err := resolveProducts(ctx, q, d.Items)
		if err != nil {
			return err
		}
		cust, err := q.GetCustomer(ctx, ord.CustomerID)
		if err != nil {
			return err
		}
		email := cust.Email
		if d.Email != "" {
			email = d.Email
		}
		address := cust.Address
		if d.Address != "" {
			address = d.Address
		}
		if _, err := q.UpdateCustomer(ctx, store.UpdateCustomerParams{
			ID:        cust.ID,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Email:     email,
			Phone:     d.Phone,
			Address:   address,
		}); err != nil {
			return err
		}
		status := string(d.Status)
		if status == "" {
			status = ord.Status
		}
		createdAt := ord.CreatedAt
		if d.OrderDate != nil {
			createdAt = *d.OrderDate
		}
		ord, err = q.UpdateOrder(ctx, store.UpdateOrderParams{
			ID:                     ord.ID,
			CustomerID:             ord.CustomerID,
			Status:                 status,
			DeliveryPaymentType:    string(d.Delivery.Policy),
			DeliveryFee:            d.Delivery.Fee,
			CustomerDeliveryAmount: d.Delivery.CustomerAmount,
			BusinessDeliveryAmount: d.Delivery.BusinessAmount,
			PackagingBoxes:         d.PackagingBoxes,
			CreatedAt:              createdAt,
		})
		if err != nil {
			return err
		}
		if err := q.DeleteOrderItems(ctx, ord.ID); err != nil {
			return err
		}
		if err := addItems(ctx, q, ord.ID, products, d.Items); err != nil {
			return err
		}
		detail, err = recompute(ctx, q, ord, TriggerUpdated, true)
		return err
	})
	if err != nil {
		return Result{}, mapError(err)
	}
	s.invalidate(ctx)
	s.Logger.Info().Str("order_number", detail.OrderNumber).Msg("order updated")
	return Result{
		Order:   detail,
		Message: fmt.Sprintf("Order %s updated successfully! Total: %s", detail.OrderNumber, s.amount(detail.TotalAmount)),
	}, nil
}

// Delete removes an order together with its items and linked expenses.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	ord, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return "", mapError(err)
	}
	n, err := s.Store.DeleteOrder(ctx, id)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", common.NotFound("order")
	}
	s.invalidate(ctx)
	s.Logger.Info().Str("order_number", ord.OrderNumber).Msg("order deleted")
	return fmt.Sprintf("Order %s deleted successfully!", ord.OrderNumber), nil
}

// SetStatus moves an order to another status.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) (Detail, error) {
	if !Status(status).Valid() {
		return Detail{}, common.ValidationError(map[string]string{"status": "must be one of: new processing shipped delivered returned"})
	}
	var detail Detail
	err := s.Store.InTx(ctx, func(q Querier) error {
		if _, err := q.GetOrderForUpdate(ctx, id); err != nil {
			return err
		}
		ord, err := q.UpdateOrderStatus(ctx, id, status)
		if err != nil {
			return err
		}
		detail, err = recompute(ctx, q, ord, TriggerStatus, false)
		return err
	})
	if err != nil {
		return Detail{}, mapError(err)
	}
	s.invalidate(ctx)
	return detail, nil
}

// AddItem appends a line to an order.
func (s *Service) AddItem(ctx context.Context, orderID int64, in ItemInput) (Detail, error) {
	if err := checkQuantity(in.Quantity); err != nil {
		return Detail{}, err
	}
	if in.ProductID <= 0 && strings.TrimSpace(in.SKU) == "" {
		return Detail{}, common.ValidationError(map[string]string{"product_id": "product_id or sku is required"})
	}
	return s.mutateItems(ctx, orderID, TriggerItemAdded, func(q Querier, ord store.Order) error {
		products, err := resolveProducts(ctx, q, []ItemInput{in})
		if err != nil {
			return err
		}
		_, err = q.AddOrderItem(ctx, ord.ID, products[0].ID, int32(in.Quantity))
		return err
	})
}

// UpdateItem changes the quantity of one line.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID int64, quantity int) (Detail, error) {
	if err := checkQuantity(quantity); err != nil {
		return Detail{}, err
	}
	return s.mutateItems(ctx, orderID, TriggerItemUpdated, func(q Querier, ord store.Order) error {
		n, err := q.UpdateOrderItemQuantity(ctx, ord.ID, itemID, int32(quantity))
		if err != nil {
			return err
		}
		if n == 0 {
			return common.NotFound("order item")
		}
		return nil
	})
}

// RemoveItem deletes one line. The last line of an order cannot be removed.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) (Detail, error) {
	return s.mutateItems(ctx, orderID, TriggerItemRemoved, func(q Querier, ord store.Order) error {
		items, err := q.ListOrderItems(ctx, ord.ID)
		if err != nil {
			return err
		}
		if len(items) == 1 && items[0].ID == itemID {
			return common.ValidationError(map[string]string{"items": "an order must keep at least one item"})
		}
		n, err := q.DeleteOrderItem(ctx, ord.ID, itemID)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.NotFound("order item")
		}
		return nil
	})
}

func (s *Service) mutateItems(ctx context.Context, orderID int64, trigger string, fn func(Querier, store.Order) error) (Detail, error) {
	var detail Detail
	err := s.Store.InTx(ctx, func(q Querier) error {
		ord, err := q.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(q, ord); err != nil {
			return err
		}
		detail, err = recompute(ctx, q, ord, trigger, true)
		return err
	})
	if err != nil {
		return Detail{}, mapError(err)
	}
	s.invalidate(ctx)
	s.Logger.Debug().Str("order_number", detail.OrderNumber).Str("trigger", trigger).Msg("order items changed")
	return detail, nil
}

// RecomputeAll re-derives the totals of every order, e.g. after product
// prices changed. It returns the number of orders processed.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.Store.ListOrderIDs(ctx)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, id := range ids {
		err := s.Store.InTx(ctx, func(q Querier) error {
			ord, err := q.GetOrderForUpdate(ctx, id)
			if err != nil {
				return err
			}
			_, err = recompute(ctx, q, ord, TriggerBackfill, false)
			return err
		})
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return done, fmt.Errorf("recompute order %d: %w", id, err)
		}
		done++
	}
	if done > 0 {
		s.invalidate(ctx)
	}
	return done, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn().Err(err).Msg("invalidate report cache")
	}
}

// recompute derives the totals from the current items and persists them.
// With requirePositive set, an order whose total is not positive is rejected.
func recompute(ctx context.Context, q Querier, ord store.Order, trigger string, requirePositive bool) (Detail, error) {
	items, err := q.ListOrderItems(ctx, ord.ID)
	if err != nil {
		return Detail{}, err
	}
	summary := pricing.Compute(pricingItems(items), deliveryOf(ord))
	if err := checkSummaryRange(summary); err != nil {
		return Detail{}, err
	}
	if requirePositive && !summary.TotalAmount.IsPositive() {
		return Detail{}, common.ValidationError(map[string]string{"items": "total cost must be greater than zero"})
	}
	ord, err = q.SetOrderTotals(ctx, store.SetOrderTotalsParams{
		ID:           ord.ID,
		NumberOfTies: int32(summary.Quantity),
		TotalAmount:  summary.TotalAmount,
		TotalCost:    summary.TotalCost,
		GrossProfit:  summary.GrossProfit,
	})
	if err != nil {
		return Detail{}, err
	}
	obs.ObserveRecompute(trigger)
	cust, err := q.GetCustomer(ctx, ord.CustomerID)
	if err != nil {
		return Detail{}, err
	}
	return toDetail(ord, cust, items), nil
}

// checkSummaryRange rejects totals the orders table cannot hold.
func checkSummaryRange(s pricing.Summary) error {
	details := map[string]string{}
	if s.Quantity > math.MaxInt32 {
		details["items"] = "total quantity is too large"
	}
	for field, d := range map[string]decimal.Decimal{
		"total_amount": s.TotalAmount,
		"total_cost":   s.TotalCost,
		"gross_profit": s.GrossProfit,
	} {
		if money.CheckRange(d) != nil {
			details[field] = "must be less than 100,000,000"
		}
	}
	if len(details) > 0 {
		return common.ValidationError(details)
	}
	return nil
}

func load(ctx context.Context, q Querier, ord store.Order) (Detail, error) {
	cust, err := q.GetCustomer(ctx, ord.CustomerID)
	if err != nil {
		return Detail{}, err
	}
	items, err := q.ListOrderItems(ctx, ord.ID)
	if err != nil {
		return Detail{}, err
	}
	return toDetail(ord, cust, items), nil
}

func resolveProducts(ctx context.Context, q Querier, items []ItemInput) ([]store.Product, error) {
	products := make([]store.Product, len(items))
	details := map[string]string{}
	for i, it := range items {
		var (
			p   store.Product
			err error
		)
		if it.ProductID > 0 {
			p, err = q.GetProduct(ctx, it.ProductID)
		} else {
			p, err = q.GetProductBySKU(ctx, strings.TrimSpace(it.SKU))
		}
		if errors.Is(err, store.ErrNotFound) {
			details[fmt.Sprintf("items[%d].product_id", i)] = "product does not exist"
			continue
		}
		if err != nil {
			return nil, err
		}
		products[i] = p
	}
	if len(details) > 0 {
		return nil, common.ValidationError(details)
	}
	return products, nil
}

func addItems(ctx context.Context, q Querier, orderID int64, products []store.Product, items []ItemInput) error {
	for i, it := range items {
		if _, err := q.AddOrderItem(ctx, orderID, products[i].ID, int32(it.Quantity)); err != nil {
			return err
		}
	}
	return nil
}

// customerForPhone returns the customer with d.Phone, creating it from the
// form when none exists. Existing customers keep their stored details.
func customerForPhone(ctx context.Context, q Querier, d draft) (store.Customer, error) {
	cust, err := q.GetCustomerByPhone(ctx, d.Phone)
	if err == nil {
		return cust, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Customer{}, err
	}
	return q.CreateCustomer(ctx, store.CreateCustomerParams{
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.Phone,
		Address:   d.Address,
	})
}

// nextOrderNumber advances the locked counter row. The counter is seeded from
// the highest existing numeric order number the first time it is used.
func nextOrderNumber(ctx context.Context, q Querier) (string, error) {
	last, ok, err := q.LockCounter(ctx, store.OrderNumberCounter)
	if err != nil {
		return "", err
	}
	if !ok {
		existing, err := q.ListOrderNumbers(ctx)
		if err != nil {
			return "", err
		}
		if err := q.SeedCounter(ctx, store.OrderNumberCounter, MaxNumeric(existing)); err != nil {
			return "", err
		}
		last, ok, err = q.LockCounter(ctx, store.OrderNumberCounter)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.New("order counter missing after seeding")
		}
	}
	next := last + 1
	if err := q.SetCounter(ctx, store.OrderNumberCounter, next); err != nil {
		return "", err
	}
	return FormatNumber(next), nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound("order")
	case store.IsUniqueViolation(err):
		return common.NewAppError("CONFLICT", "another record already uses this value", http.StatusConflict, err)
	default:
		return err
	}
}

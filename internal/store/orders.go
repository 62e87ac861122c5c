package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const orderColumns = `o.id, o.order_number, o.customer_id, o.status, o.number_of_ties, o.total_amount, o.total_cost,
	o.gross_profit, o.delivery_fee, o.delivery_payment_type, o.customer_delivery_amount,
	o.business_delivery_amount, o.packaging_boxes, o.created_at, o.updated_at`

func orderDest(o *Order) []any {
	return []any{&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.NumberOfTies, &o.TotalAmount, &o.TotalCost,
		&o.GrossProfit, &o.DeliveryFee, &o.DeliveryPaymentType, &o.CustomerDeliveryAmount,
		&o.BusinessDeliveryAmount, &o.PackagingBoxes, &o.CreatedAt, &o.UpdatedAt}
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(orderDest(&o)...)
	return o, err
}

type CreateOrderParams struct {
	OrderNumber            string
	CustomerID             int64
	Status                 string
	DeliveryPaymentType    string
	DeliveryFee            decimal.Decimal
	CustomerDeliveryAmount decimal.Decimal
	BusinessDeliveryAmount decimal.Decimal
	PackagingBoxes         int32
	CreatedAt              time.Time
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders AS o (order_number, customer_id, status, delivery_payment_type, delivery_fee,
			customer_delivery_amount, business_delivery_amount, packaging_boxes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING `+orderColumns,
		arg.OrderNumber, arg.CustomerID, arg.Status, arg.DeliveryPaymentType, arg.DeliveryFee,
		arg.CustomerDeliveryAmount, arg.BusinessDeliveryAmount, arg.PackagingBoxes, arg.CreatedAt)
	o, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id))
	return o, notFound(err)
}

// GetOrderForUpdate locks the order row until the surrounding transaction ends.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id))
	return o, notFound(err)
}

type ListOrdersParams struct {
	CustomerID *int64
	Status     string
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]OrderListRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+`, c.first_name, c.last_name, c.phone
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE ($1::bigint IS NULL OR o.customer_id = $1)
		  AND ($2 = '' OR o.status = $2)
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $3 OFFSET $4`,
		arg.CustomerID, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var items []OrderListRow
	for rows.Next() {
		var r OrderListRow
		dest := append(orderDest(&r.Order), &r.CustomerFirstName, &r.CustomerLastName, &r.CustomerPhone)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) CountOrders(ctx context.Context, customerID *int64, status string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders o
		WHERE ($1::bigint IS NULL OR o.customer_id = $1)
		  AND ($2 = '' OR o.status = $2)`, customerID, status).Scan(&n)
	return n, err
}

type UpdateOrderParams struct {
	ID                     int64
	CustomerID             int64
	Status                 string
	DeliveryPaymentType    string
	DeliveryFee            decimal.Decimal
	CustomerDeliveryAmount decimal.Decimal
	BusinessDeliveryAmount decimal.Decimal
	PackagingBoxes         int32
	CreatedAt              time.Time
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders AS o
		SET customer_id = $2, status = $3, delivery_payment_type = $4, delivery_fee = $5,
		    customer_delivery_amount = $6, business_delivery_amount = $7, packaging_boxes = $8,
		    created_at = $9, updated_at = NOW()
		WHERE o.id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.CustomerID, arg.Status, arg.DeliveryPaymentType, arg.DeliveryFee,
		arg.CustomerDeliveryAmount, arg.BusinessDeliveryAmount, arg.PackagingBoxes, arg.CreatedAt)
	o, err := scanOrder(row)
	return o, notFound(err)
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, id int64, status string) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders AS o SET status = $2, updated_at = NOW()
		WHERE o.id = $1
		RETURNING `+orderColumns, id, status)
	o, err := scanOrder(row)
	return o, notFound(err)
}

type SetOrderTotalsParams struct {
	ID           int64
	NumberOfTies int32
	TotalAmount  decimal.Decimal
	TotalCost    decimal.Decimal
	GrossProfit  decimal.Decimal
}

func (q *Queries) SetOrderTotals(ctx context.Context, arg SetOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders AS o
		SET number_of_ties = $2, total_amount = $3, total_cost = $4, gross_profit = $5, updated_at = NOW()
		WHERE o.id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.NumberOfTies, arg.TotalAmount, arg.TotalCost, arg.GrossProfit)
	o, err := scanOrder(row)
	return o, notFound(err)
}

func (q *Queries) DeleteOrder(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) ListOrderNumbers(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT order_number FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("list order numbers: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (q *Queries) ListOrderIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.Query(ctx, `SELECT id FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list order ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

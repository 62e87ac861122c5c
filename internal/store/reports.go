package store

import (
	"context"
	"fmt"
	"time"
)

type ReportOrdersParams struct {
	CustomerIDs []int64
	From        *time.Time
	To          *time.Time
}

// ListReportOrders returns orders for aggregation, optionally limited to a
// set of customers and a created_at window [From, To).
func (q *Queries) ListReportOrders(ctx context.Context, arg ReportOrdersParams) ([]ReportOrder, error) {
	rows, err := q.db.Query(ctx, `
		SELECT o.id, o.order_number, o.customer_id, o.number_of_ties, o.total_amount, o.total_cost,
		       o.gross_profit, o.delivery_fee, o.delivery_payment_type, o.customer_delivery_amount,
		       o.business_delivery_amount,
		       COALESCE((SELECT SUM(i.quantity * p.cost_price)
		                 FROM order_items i JOIN products p ON p.id = i.product_id
		                 WHERE i.order_id = o.id), 0),
		       o.created_at
		FROM orders o
		WHERE ($1::bigint[] IS NULL OR o.customer_id = ANY($1))
		  AND ($2::timestamptz IS NULL OR o.created_at >= $2)
		  AND ($3::timestamptz IS NULL OR o.created_at < $3)
		ORDER BY o.created_at, o.id`,
		arg.CustomerIDs, arg.From, arg.To)
	if err != nil {
		return nil, fmt.Errorf("list report orders: %w", err)
	}
	defer rows.Close()

	var items []ReportOrder
	for rows.Next() {
		var r ReportOrder
		if err := rows.Scan(&r.ID, &r.OrderNumber, &r.CustomerID, &r.NumberOfTies, &r.TotalAmount, &r.TotalCost,
			&r.GrossProfit, &r.DeliveryFee, &r.DeliveryPaymentType, &r.CustomerDeliveryAmount,
			&r.BusinessDeliveryAmount, &r.ItemCost, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// ListReportExpenses returns expenses dated within [from, to); nil bounds are open.
func (q *Queries) ListReportExpenses(ctx context.Context, from, to *time.Time) ([]ReportExpense, error) {
	rows, err := q.db.Query(ctx, `
		SELECT e.amount, e.expense_type, e.order_id, e.date
		FROM expenses e
		WHERE ($1::timestamptz IS NULL OR e.date >= $1)
		  AND ($2::timestamptz IS NULL OR e.date < $2)
		ORDER BY e.date, e.id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list report expenses: %w", err)
	}
	defer rows.Close()

	var items []ReportExpense
	for rows.Next() {
		var r ReportExpense
		if err := rows.Scan(&r.Amount, &r.ExpenseType, &r.OrderID, &r.Date); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// OrderTotals holds dashboard counters.
type OrderTotals struct {
	Orders int64
	Ties   int64
}

func (q *Queries) GetOrderTotals(ctx context.Context) (OrderTotals, error) {
	var t OrderTotals
	err := q.db.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(number_of_ties), 0)::bigint FROM orders`).Scan(&t.Orders, &t.Ties)
	return t, err
}

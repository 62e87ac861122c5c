package store

import (
	"context"
	"fmt"
)

func (q *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, p.sku, p.name, p.unit_price, p.cost_price
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.ProductSKU, &it.ProductName,
			&it.UnitPrice, &it.CostPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (q *Queries) AddOrderItem(ctx context.Context, orderID, productID int64, quantity int32) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id`, orderID, productID, quantity).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add order item: %w", err)
	}
	return id, nil
}

func (q *Queries) UpdateOrderItemQuantity(ctx context.Context, orderID, itemID int64, quantity int32) (int64, error) {
	tag, err := q.db.Exec(ctx, `UPDATE order_items SET quantity = $3 WHERE id = $2 AND order_id = $1`, orderID, itemID, quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) DeleteOrderItem(ctx context.Context, orderID, itemID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE id = $2 AND order_id = $1`, orderID, itemID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (q *Queries) DeleteOrderItems(ctx context.Context, orderID int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
	return err
}

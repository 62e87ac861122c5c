package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// OrderNumberCounter names the counter row used for order numbers.
const OrderNumberCounter = "order_number"

// LockCounter reads a counter and locks its row for the rest of the
// transaction. ok is false when the counter has not been seeded yet.
func (q *Queries) LockCounter(ctx context.Context, name string) (value int64, ok bool, err error) {
	err = q.db.QueryRow(ctx, `SELECT last_value FROM order_counters WHERE name = $1 FOR UPDATE`, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// SeedCounter inserts the counter unless a concurrent transaction already did.
func (q *Queries) SeedCounter(ctx context.Context, name string, value int64) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO order_counters (name, last_value) VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`, name, value)
	return err
}

func (q *Queries) SetCounter(ctx context.Context, name string, value int64) error {
	_, err := q.db.Exec(ctx, `UPDATE order_counters SET last_value = $2 WHERE name = $1`, name, value)
	return err
}

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const expenseColumns = `e.id, e.description, e.amount, e.expense_type, e.order_id,
	(SELECT o.order_number FROM orders o WHERE o.id = e.order_id), e.date`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.Description, &e.Amount, &e.ExpenseType, &e.OrderID, &e.OrderNumber, &e.Date)
	return e, err
}

type CreateExpenseParams struct {
	Description string
	Amount      decimal.Decimal
	ExpenseType string
	OrderID     *int64
	Date        time.Time
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO expenses AS e (description, amount, expense_type, order_id, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+expenseColumns,
		arg.Description, arg.Amount, arg.ExpenseType, arg.OrderID, arg.Date)
	e, err := scanExpense(row)
	if err != nil {
		return Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (q *Queries) GetExpense(ctx context.Context, id int64) (Expense, error) {
	e, err := scanExpense(q.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses e WHERE e.id = $1`, id))
	return e, notFound(err)
}

type UpdateExpenseParams struct {
	ID          int64
	Description string
	Amount      decimal.Decimal
	ExpenseType string
	OrderID     *int64
	Date        time.Time
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE expenses AS e
		SET description = $2, amount = $3, expense_type = $4, order_id = $5, date = $6
		WHERE e.id = $1
		RETURNING `+expenseColumns,
		arg.ID, arg.Description, arg.Amount, arg.ExpenseType, arg.OrderID, arg.Date)
	e, err := scanExpense(row)
	return e, notFound(err)
}

func (q *Queries) DeleteExpense(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ListExpensesParams struct {
	OrderID *int64
	Limit   int32
	Offset  int32
}

func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		WHERE ($1::bigint IS NULL OR e.order_id = $1)
		ORDER BY e.date DESC, e.id DESC
		LIMIT $2 OFFSET $3`, arg.OrderID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (q *Queries) CountExpenses(ctx context.Context, orderID *int64) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM expenses e WHERE ($1::bigint IS NULL OR e.order_id = $1)`, orderID).Scan(&n)
	return n, err
}

func (q *Queries) ListExpenseDescriptions(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT DISTINCT description FROM expenses WHERE description <> '' ORDER BY description`)
	if err != nil {
		return nil, fmt.Errorf("list expense descriptions: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (q *Queries) ListExpenseTypes(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx, `SELECT DISTINCT expense_type FROM expenses WHERE expense_type <> '' ORDER BY expense_type`)
	if err != nil {
		return nil, fmt.Errorf("list expense types: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

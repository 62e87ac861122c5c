package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `c.id, c.first_name, c.last_name, c.email, c.phone, c.address, c.created_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
	return c, err
}

type CreateCustomerParams struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

func (q *Queries) CreateCustomer(ctx context.Context, arg CreateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO customers AS c (first_name, last_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+customerColumns,
		arg.FirstName, arg.LastName, arg.Email, arg.Phone, arg.Address)
	c, err := scanCustomer(row)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (q *Queries) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.id = $1`, id))
	return c, notFound(err)
}

func (q *Queries) GetCustomerByPhone(ctx context.Context, phone string) (Customer, error) {
	c, err := scanCustomer(q.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.phone = $1`, phone))
	return c, notFound(err)
}

func (q *Queries) GetCustomersByIDs(ctx context.Context, ids []int64) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get customers: %w", err)
	}
	defer rows.Close()
	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

type UpdateCustomerParams struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

func (q *Queries) UpdateCustomer(ctx context.Context, arg UpdateCustomerParams) (Customer, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE customers AS c
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6
		WHERE c.id = $1
		RETURNING `+customerColumns,
		arg.ID, arg.FirstName, arg.LastName, arg.Email, arg.Phone, arg.Address)
	c, err := scanCustomer(row)
	return c, notFound(err)
}

func (q *Queries) DeleteCustomer(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Customer list sort keys.
const (
	CustomerSortName       = "name"
	CustomerSortFirstOrder = "first_order"
	CustomerSortTies       = "ties"
)

type ListCustomersParams struct {
	Search string
	Sort   string
	Limit  int32
	Offset int32
}

func customerOrderBy(sort string) string {
	switch sort {
	case CustomerSortFirstOrder:
		return `first_order_at ASC NULLS LAST, c.id`
	case CustomerSortTies:
		return `total_ties DESC, c.id`
	default:
		return `c.first_name, c.last_name, c.id`
	}
}

func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]CustomerRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+customerColumns+`,
		       MIN(o.created_at) AS first_order_at,
		       COALESCE(SUM(o.number_of_ties), 0)::bigint AS total_ties
		FROM customers c
		LEFT JOIN orders o ON o.customer_id = c.id
		WHERE ($1 = ''
		    OR c.first_name ILIKE '%' || $1 || '%'
		    OR c.last_name ILIKE '%' || $1 || '%'
		    OR c.phone ILIKE '%' || $1 || '%'
		    OR c.email ILIKE '%' || $1 || '%')
		GROUP BY c.id
		ORDER BY `+customerOrderBy(arg.Sort)+`
		LIMIT $2 OFFSET $3`,
		arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var items []CustomerRow
	for rows.Next() {
		var r CustomerRow
		if err := rows.Scan(&r.ID, &r.FirstName, &r.LastName, &r.Email, &r.Phone, &r.Address, &r.CreatedAt,
			&r.FirstOrderAt, &r.TotalTies); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

func (q *Queries) CountCustomers(ctx context.Context, search string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM customers c
		WHERE ($1 = ''
		    OR c.first_name ILIKE '%' || $1 || '%'
		    OR c.last_name ILIKE '%' || $1 || '%'
		    OR c.phone ILIKE '%' || $1 || '%'
		    OR c.email ILIKE '%' || $1 || '%')`, search).Scan(&n)
	return n, err
}

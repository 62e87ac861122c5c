package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const productColumns = `id, sku, name, description, unit_price, cost_price, sold, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.UnitPrice, &p.CostPrice, &p.Sold, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

type CreateProductParams struct {
	SKU         string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	Sold        bool
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (sku, name, description, unit_price, cost_price, sold)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+productColumns,
		arg.SKU, arg.Name, arg.Description, arg.UnitPrice, arg.CostPrice, arg.Sold)
	p, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (q *Queries) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	return p, notFound(err)
}

func (q *Queries) GetProductBySKU(ctx context.Context, sku string) (Product, error) {
	p, err := scanProduct(q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku = $1`, sku))
	return p, notFound(err)
}

type ListProductsParams struct {
	Search string
	Sold   *bool
	Limit  int32
	Offset int32
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		  AND ($2::boolean IS NULL OR sold = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`,
		arg.Search, arg.Sold, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (q *Queries) CountProducts(ctx context.Context, search string, sold *bool) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
		  AND ($2::boolean IS NULL OR sold = $2)`,
		search, sold).Scan(&n)
	return n, err
}

type UpdateProductParams struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	CostPrice   decimal.Decimal
	Sold        bool
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products
		SET sku = $2, name = $3, description = $4, unit_price = $5, cost_price = $6, sold = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID, arg.SKU, arg.Name, arg.Description, arg.UnitPrice, arg.CostPrice, arg.Sold)
	p, err := scanProduct(row)
	return p, notFound(err)
}

func (q *Queries) DeleteProduct(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

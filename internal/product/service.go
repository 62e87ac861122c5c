// Package product manages the tie catalogue the shop sells from.
package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/money"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

type queryProvider interface {
	CreateProduct(ctx context.Context, arg store.CreateProductParams) (store.Product, error)
	GetProduct(ctx context.Context, id int64) (store.Product, error)
	ListProducts(ctx context.Context, arg store.ListProductsParams) ([]store.Product, error)
	CountProducts(ctx context.Context, search string, sold *bool) (int64, error)
	UpdateProduct(ctx context.Context, arg store.UpdateProductParams) (store.Product, error)
	DeleteProduct(ctx context.Context, id int64) (int64, error)
}

// Service validates product input and talks to the store.
type Service struct {
	queries      queryProvider
	cache        cache.Invalidator
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        cache.Invalidator
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("product: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	inv := cfg.Cache
	if inv == nil {
		inv = cache.Nop{}
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        inv,
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// Product is the API representation of a product.
type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Profit      decimal.Decimal `json:"profit"`
	Sold        bool            `json:"sold"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProduct(p store.Product) Product {
	return Product{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		CostPrice:   p.CostPrice,
		Profit:      p.UnitPrice.Sub(p.CostPrice),
		Sold:        p.Sold,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Input is the create and update payload.
type Input struct {
	SKU         string     `json:"sku" validate:"required,max=64"`
	Name        string     `json:"name" validate:"required,max=200"`
	Description string     `json:"description"`
	UnitPrice   money.Text `json:"unit_price" validate:"required"`
	CostPrice   money.Text `json:"cost_price"`
	Sold        bool       `json:"sold"`
}

type fields struct {
	sku, name, description string
	unitPrice, costPrice   decimal.Decimal
	sold                   bool
}

func parseInput(in Input) (fields, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if err := common.ValidateStruct(in); err != nil {
		return fields{}, err
	}
	details := map[string]string{}
	unit, err := parsePrice(in.UnitPrice, "unit_price", details)
	if err != nil {
		return fields{}, err
	}
	cost, err := parsePrice(in.CostPrice, "cost_price", details)
	if err != nil {
		return fields{}, err
	}
	if len(details) > 0 {
		return fields{}, common.ValidationError(details)
	}
	return fields{
		sku:         in.SKU,
		name:        in.Name,
		description: strings.TrimSpace(in.Description),
		unitPrice:   unit,
		costPrice:   cost,
		sold:        in.Sold,
	}, nil
}

func parsePrice(raw money.Text, field string, details map[string]string) (decimal.Decimal, error) {
	d, err := raw.Decimal()
	switch {
	case errors.Is(err, money.ErrPrecision):
		details[field] = "must have at most 2 decimal places"
	case errors.Is(err, money.ErrRange):
		details[field] = "must be less than 100,000,000"
	case err != nil:
		return decimal.Zero, common.ParseError(err)
	case d.IsNegative():
		details[field] = "must not be negative"
	}
	return d, nil
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Sold  *bool
	Page  int
	Limit int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product
	Total int64
	Page  int
	Limit int
}

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = min(page, common.MaxPage)
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = min(l, s.maxLimit)
	}
	if v := strings.TrimSpace(values.Get("sold")); v != "" {
		b, err := parseBool(v)
		if err != nil {
			return params, badRequest("sold", "sold must be true or false", err)
		}
		params.Sold = &b
	}
	return params, nil
}

// List returns products newest first.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, error) {
	total, err := s.queries.CountProducts(ctx, p.Query, p.Sold)
	if err != nil {
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}
	rows, err := s.queries.ListProducts(ctx, store.ListProductsParams{
		Search: p.Query,
		Sold:   p.Sold,
		Limit:  int32(p.Limit),
		Offset: int32(common.Offset(p.Page, p.Limit)),
	})
	if err != nil {
		return ListResult{}, err
	}
	items := make([]Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, toProduct(row))
	}
	return ListResult{Items: items, Total: total, Page: p.Page, Limit: p.Limit}, nil
}

// Get loads one product.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	p, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		return Product{}, mapError(err)
	}
	return toProduct(p), nil
}

// Create adds a product. SKUs are unique.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	f, err := parseInput(in)
	if err != nil {
		return Product{}, err
	}
	p, err := s.queries.CreateProduct(ctx, store.CreateProductParams{
		SKU:         f.sku,
		Name:        f.name,
		Description: f.description,
		UnitPrice:   f.unitPrice,
		CostPrice:   f.costPrice,
		Sold:        f.sold,
	})
	if err != nil {
		return Product{}, mapError(err)
	}
	return toProduct(p), nil
}

// Update replaces a product's fields. Stored order totals are not touched;
// run the recompute tool after price edits to refresh them.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Product, error) {
	f, err := parseInput(in)
	if err != nil {
		return Product{}, err
	}
	p, err := s.queries.UpdateProduct(ctx, store.UpdateProductParams{
		ID:          id,
		SKU:         f.sku,
		Name:        f.name,
		Description: f.description,
		UnitPrice:   f.unitPrice,
		CostPrice:   f.costPrice,
		Sold:        f.sold,
	})
	if err != nil {
		return Product{}, mapError(err)
	}
	// cost prices feed customer and financial figures
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("invalidate report cache")
	}
	return toProduct(p), nil
}

// Delete removes a product that no order references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	n, err := s.queries.DeleteProduct(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return common.NotFound("product")
	}
	return nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound("product")
	case store.IsUniqueViolation(err):
		return common.NewAppError("CONFLICT", "a product with this sku already exists", http.StatusConflict, err)
	case store.IsForeignKeyViolation(err):
		return common.NewAppError("PRODUCT_IN_USE", "product is used by existing orders", http.StatusConflict, err)
	default:
		return err
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean: %s", value)
	}
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details:    map[string]any{"field": field},
	}
}

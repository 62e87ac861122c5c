package product_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tieshop/internal/product"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

type fakeQueries struct {
	nextID   int64
	products map[int64]store.Product
	inUse    map[int64]bool
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{products: map[int64]store.Product{}, inUse: map[int64]bool{}}
}

func (f *fakeQueries) CreateProduct(_ context.Context, arg store.CreateProductParams) (store.Product, error) {
	for _, p := range f.products {
		if p.SKU == arg.SKU {
			return store.Product{}, &pgconn.PgError{Code: "23505"}
		}
	}
	f.nextID++
	now := time.Now()
	p := store.Product{
		ID: f.nextID, SKU: arg.SKU, Name: arg.Name, Description: arg.Description,
		UnitPrice: arg.UnitPrice, CostPrice: arg.CostPrice, Sold: arg.Sold, CreatedAt: now, UpdatedAt: now,
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeQueries) GetProduct(_ context.Context, id int64) (store.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (f *fakeQueries) filter(search string, sold *bool) []store.Product {
	var out []store.Product
	for _, p := range f.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name+" "+p.SKU), strings.ToLower(search)) {
			continue
		}
		if sold != nil && p.Sold != *sold {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeQueries) ListProducts(_ context.Context, arg store.ListProductsParams) ([]store.Product, error) {
	rows := f.filter(arg.Search, arg.Sold)
	start := min(int(arg.Offset), len(rows))
	end := min(start+int(arg.Limit), len(rows))
	return rows[start:end], nil
}

func (f *fakeQueries) CountProducts(_ context.Context, search string, sold *bool) (int64, error) {
	return int64(len(f.filter(search, sold))), nil
}

func (f *fakeQueries) UpdateProduct(_ context.Context, arg store.UpdateProductParams) (store.Product, error) {
	p, ok := f.products[arg.ID]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	p.SKU, p.Name, p.Description = arg.SKU, arg.Name, arg.Description
	p.UnitPrice, p.CostPrice, p.Sold = arg.UnitPrice, arg.CostPrice, arg.Sold
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeQueries) DeleteProduct(_ context.Context, id int64) (int64, error) {
	if f.inUse[id] {
		return 0, &pgconn.PgError{Code: "23503"}
	}
	if _, ok := f.products[id]; !ok {
		return 0, nil
	}
	delete(f.products, id)
	return 1, nil
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func newRouter(t *testing.T, q *fakeQueries, inv *countingInvalidator) http.Handler {
	t.Helper()
	return newRouterWithLogger(t, q, inv, zerolog.Nop())
}

func newRouterWithLogger(t *testing.T, q *fakeQueries, inv *countingInvalidator, logger zerolog.Logger) http.Handler {
	t.Helper()
	svc, err := product.NewService(product.ServiceConfig{Queries: q, Cache: inv, Logger: logger, DefaultLimit: 20})
	require.NoError(t, err)
	h := product.NewHandler(product.HandlerConfig{Service: svc})
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Get("/products/{id}", h.Get)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type errorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func TestProductCRUD(t *testing.T) {
	q := newFakeQueries()
	inv := &countingInvalidator{}
	router := newRouter(t, q, inv)

	rec := do(router, http.MethodPost, "/products", `{"sku":"TIE-001","name":"Silk Navy","unit_price":"25.50","cost_price":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data product.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "TIE-001", created.Data.SKU)
	require.Equal(t, "15.5", created.Data.Profit.String())

	rec = do(router, http.MethodPost, "/products", `{"sku":"TIE-001","name":"Other","unit_price":"5"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(router, http.MethodPut, "/products/1", `{"sku":"TIE-001","name":"Silk Navy","unit_price":"30","cost_price":"12","sold":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, inv.calls)

	rec = do(router, http.MethodGet, "/products/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"sold":true`)

	rec = do(router, http.MethodGet, "/products/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductListFilters(t *testing.T) {
	q := newFakeQueries()
	router := newRouter(t, q, &countingInvalidator{})
	for _, body := range []string{
		`{"sku":"TIE-001","name":"Silk Navy","unit_price":"25"}`,
		`{"sku":"TIE-002","name":"Wool Grey","unit_price":"20","sold":true}`,
		`{"sku":"TIE-003","name":"Silk Red","unit_price":"22"}`,
	} {
		require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/products", body).Code)
	}

	rec := do(router, http.MethodGet, "/products?q=silk&sold=false&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	var list struct {
		Data       []product.Product `json:"data"`
		Pagination struct {
			TotalPages int `json:"total_pages"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, "TIE-003", list.Data[0].SKU)
	require.Equal(t, 2, list.Pagination.TotalPages)

	rec = do(router, http.MethodGet, "/products?sold=maybe", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductValidation(t *testing.T) {
	router := newRouter(t, newFakeQueries(), &countingInvalidator{})

	rec := do(router, http.MethodPost, "/products", `{"sku":"","name":"X","unit_price":"-1","cost_price":"1.005"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Contains(t, body.Error.Details, "sku")

	rec = do(router, http.MethodPost, "/products", `{"sku":"A","name":"X","unit_price":"-1","cost_price":"1.005"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = errorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "must not be negative", body.Error.Details["unit_price"])
	require.Equal(t, "must have at most 2 decimal places", body.Error.Details["cost_price"])

	rec = do(router, http.MethodPost, "/products", `{"sku":"A","name":"X","unit_price":"100000000"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body = errorResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Error.Details, "unit_price")

	rec = do(router, http.MethodPost, "/products", `{"sku":"A","name":"X","unit_price":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductUpdateLogsInvalidateFailure(t *testing.T) {
	var buf bytes.Buffer
	inv := &countingInvalidator{err: errors.New("redis down")}
	router := newRouterWithLogger(t, newFakeQueries(), inv, zerolog.New(&buf))
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/products", `{"sku":"A","name":"X","unit_price":"5"}`).Code)

	rec := do(router, http.MethodPut, "/products/1", `{"sku":"A","name":"X","unit_price":"6"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, inv.calls)
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), "invalidate report cache")
	require.Contains(t, buf.String(), "redis down")
}

func TestProductDeleteInUse(t *testing.T) {
	q := newFakeQueries()
	router := newRouter(t, q, &countingInvalidator{})
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/products", `{"sku":"A","name":"X","unit_price":"5"}`).Code)
	q.inUse[1] = true

	rec := do(router, http.MethodDelete, "/products/1", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "PRODUCT_IN_USE")

	q.inUse[1] = false
	require.Equal(t, http.StatusNoContent, do(router, http.MethodDelete, "/products/1", "").Code)
	require.Equal(t, http.StatusNotFound, do(router, http.MethodDelete, "/products/1", "").Code)
}

package customer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-tieshop/internal/customer"
	"github.com/noah-isme/backend-tieshop/internal/order"
	"github.com/noah-isme/backend-tieshop/internal/report"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

type fakeQueries struct {
	customers []store.Customer
	lastList  store.ListCustomersParams
}

func (f *fakeQueries) GetCustomer(_ context.Context, id int64) (store.Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return store.Customer{}, store.ErrNotFound
}

func (f *fakeQueries) ListCustomers(_ context.Context, arg store.ListCustomersParams) ([]store.CustomerRow, error) {
	f.lastList = arg
	var out []store.CustomerRow
	for i, c := range f.customers {
		if i < int(arg.Offset) || len(out) >= int(arg.Limit) {
			continue
		}
		out = append(out, store.CustomerRow{Customer: c})
	}
	return out, nil
}

func (f *fakeQueries) CountCustomers(context.Context, string) (int64, error) {
	return int64(len(f.customers)), nil
}

func (f *fakeQueries) UpdateCustomer(_ context.Context, arg store.UpdateCustomerParams) (store.Customer, error) {
	for _, c := range f.customers {
		if c.ID != arg.ID && c.Phone == arg.Phone {
			return store.Customer{}, &pgconn.PgError{Code: "23505"}
		}
	}
	for i, c := range f.customers {
		if c.ID == arg.ID {
			c.FirstName, c.LastName, c.Email, c.Phone, c.Address = arg.FirstName, arg.LastName, arg.Email, arg.Phone, arg.Address
			f.customers[i] = c
			return c, nil
		}
	}
	return store.Customer{}, store.ErrNotFound
}

func (f *fakeQueries) DeleteCustomer(_ context.Context, id int64) (int64, error) {
	for i, c := range f.customers {
		if c.ID == id {
			f.customers = append(f.customers[:i], f.customers[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeStats map[int64]report.CustomerStats

func (f fakeStats) CustomerStats(_ context.Context, ids []int64) (map[int64]report.CustomerStats, error) {
	out := map[int64]report.CustomerStats{}
	for _, id := range ids {
		if s, ok := f[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fakeOrders struct{ params order.ListParams }

func (f *fakeOrders) List(_ context.Context, p order.ListParams) ([]order.Summary, int64, error) {
	f.params = p
	return []order.Summary{{ID: 7, OrderNumber: "00007", CustomerID: *p.CustomerID}}, 1, nil
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

type fixture struct {
	q      *fakeQueries
	orders *fakeOrders
	inv    *countingInvalidator
	logs   *bytes.Buffer
	router http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		q: &fakeQueries{customers: []store.Customer{
			{ID: 1, FirstName: "Ada", LastName: "Obi", Phone: "08011111111"},
			{ID: 2, FirstName: "Bayo", Phone: "08022222222"},
		}},
		orders: &fakeOrders{},
		inv:    &countingInvalidator{},
		logs:   &bytes.Buffer{},
	}
	stats := report.Customer([]report.OrderLine{{OrderNumber: "00003", NumberOfTies: 2, TotalAmount: decimal.NewFromInt(50)}})
	h := &customer.Handler{Service: &customer.Service{
		Q:         f.q,
		Stats:     fakeStats{1: stats},
		OrderList: f.orders,
		Cache:     f.inv,
		Logger:    zerolog.New(f.logs),
	}}
	r := chi.NewRouter()
	r.Get("/customers", h.List)
	r.Get("/customers/{id}", h.Get)
	r.Put("/customers/{id}", h.Update)
	r.Delete("/customers/{id}", h.Delete)
	r.Get("/customers/{id}/orders", h.Orders)
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestListCustomersWithStats(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/customers?sort=ties&search=+ada+&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ada", f.q.lastList.Search)
	require.Equal(t, store.CustomerSortTies, f.q.lastList.Sort)
	require.EqualValues(t, 5, f.q.lastList.Limit)

	var body struct {
		Data []customer.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, "Ada Obi", body.Data[0].FullName)
	require.Equal(t, "00003", body.Data[0].Stats.LatestOrderNumber)
	require.Equal(t, report.NoOrders, body.Data[1].Stats.LatestOrderNumber)
	require.True(t, body.Data[1].Stats.LifetimeValue.IsZero())
}

func TestListCustomersRejectsUnknownSort(t *testing.T) {
	rec := newFixture().do(http.MethodGet, "/customers?sort=age", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCustomerDetailAndOrders(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/customers/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_ties_bought":2`)

	require.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/customers/9", "").Code)

	rec = f.do(http.MethodGet, "/customers/2/orders?page=2&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 2, *f.orders.params.CustomerID)
	require.Equal(t, 2, f.orders.params.Page)
	require.Equal(t, 10, f.orders.params.PerPage)

	require.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/customers/9/orders", "").Code)
}

func TestUpdateCustomer(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPut, "/customers/2", `{"first_name":"Bayo","last_name":"Ade","phone":"08011111111"}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(http.MethodPut, "/customers/2", `{"first_name":"Bayo","last_name":"Ade","phone":"08033333333","email":"bayo@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"full_name":"Bayo Ade"`)
	require.Equal(t, 1, f.inv.calls)

	rec = f.do(http.MethodPut, "/customers/2", `{"first_name":"","phone":"123"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteCustomer(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodDelete, "/customers/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Customer Ada Obi deleted successfully!")
	require.Equal(t, 1, f.inv.calls)

	require.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/customers/1", "").Code)
}

func TestDeleteCustomerLogsInvalidateFailure(t *testing.T) {
	f := newFixture()
	f.inv.err = errors.New("redis down")

	rec := f.do(http.MethodDelete, "/customers/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.inv.calls)
	require.Contains(t, f.logs.String(), `"level":"warn"`)
	require.Contains(t, f.logs.String(), "invalidate report cache")
}

// Package customer lists and maintains the shop's customers together with
// their lifetime figures.
package customer

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/order"
	"github.com/noah-isme/backend-tieshop/internal/report"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

// Querier defines the database access required for customer operations.
type Querier interface {
	GetCustomer(ctx context.Context, id int64) (store.Customer, error)
	ListCustomers(ctx context.Context, arg store.ListCustomersParams) ([]store.CustomerRow, error)
	CountCustomers(ctx context.Context, search string) (int64, error)
	UpdateCustomer(ctx context.Context, arg store.UpdateCustomerParams) (store.Customer, error)
	DeleteCustomer(ctx context.Context, id int64) (int64, error)
}

// StatsSource computes lifetime figures for a set of customers.
type StatsSource interface {
	CustomerStats(ctx context.Context, ids []int64) (map[int64]report.CustomerStats, error)
}

// OrderLister lists orders, optionally for one customer.
type OrderLister interface {
	List(ctx context.Context, p order.ListParams) ([]order.Summary, int64, error)
}

// Customer is the API representation of a customer with lifetime figures.
type Customer struct {
	ID        int64                `json:"id"`
	FirstName string               `json:"first_name"`
	LastName  string               `json:"last_name"`
	FullName  string               `json:"full_name"`
	Email     string               `json:"email"`
	Phone     string               `json:"phone"`
	Address   string               `json:"address"`
	CreatedAt time.Time            `json:"created_at"`
	Stats     report.CustomerStats `json:"stats"`
}

// Input is the update payload.
type Input struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,min=10,max=20"`
	Address   string `json:"address"`
}

// ListParams filters the customer list.
type ListParams struct {
	Search  string
	Sort    string
	Page    int
	PerPage int
}

// Service orchestrates customer operations.
type Service struct {
	Q         Querier
	Stats     StatsSource
	OrderList OrderLister
	Cache     cache.Invalidator
	Logger    zerolog.Logger
}

func validSort(sort string) bool {
	switch sort {
	case "", store.CustomerSortName, store.CustomerSortFirstOrder, store.CustomerSortTies:
		return true
	}
	return false
}

// List returns a page of customers matching the search, each with its figures.
func (s *Service) List(ctx context.Context, p ListParams) ([]Customer, int64, error) {
	if !validSort(p.Sort) {
		return nil, 0, common.ValidationError(map[string]string{"sort": "must be one of: name first_order ties"})
	}
	if p.PerPage <= 0 {
		p.PerPage = 20
	}
	search := strings.TrimSpace(p.Search)
	total, err := s.Q.CountCustomers(ctx, search)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListCustomers(ctx, store.ListCustomersParams{
		Search: search,
		Sort:   p.Sort,
		Limit:  int32(p.PerPage),
		Offset: int32(common.Offset(p.Page, p.PerPage)),
	})
	if err != nil {
		return nil, 0, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	stats, err := s.Stats.CustomerStats(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Customer, 0, len(rows))
	for _, r := range rows {
		out = append(out, toCustomer(r.Customer, stats[r.ID]))
	}
	return out, total, nil
}

// Get loads one customer with figures.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	c, err := s.Q.GetCustomer(ctx, id)
	if err != nil {
		return Customer{}, mapError(err)
	}
	stats, err := s.Stats.CustomerStats(ctx, []int64{id})
	if err != nil {
		return Customer{}, err
	}
	return toCustomer(c, stats[id]), nil
}

// Orders returns the customer's orders newest first.
func (s *Service) Orders(ctx context.Context, id int64, page, perPage int) ([]order.Summary, int64, error) {
	if _, err := s.Q.GetCustomer(ctx, id); err != nil {
		return nil, 0, mapError(err)
	}
	return s.OrderList.List(ctx, order.ListParams{Page: page, PerPage: perPage, CustomerID: &id})
}

// Update edits contact details. The phone number stays unique.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Customer, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := common.ValidateStruct(in); err != nil {
		return Customer{}, err
	}
	c, err := s.Q.UpdateCustomer(ctx, store.UpdateCustomerParams{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   strings.TrimSpace(in.Address),
	})
	if err != nil {
		return Customer{}, mapError(err)
	}
	s.invalidate(ctx)
	stats, err := s.Stats.CustomerStats(ctx, []int64{id})
	if err != nil {
		return Customer{}, err
	}
	return toCustomer(c, stats[id]), nil
}

// Delete removes a customer and, by cascade, all of their orders.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	c, err := s.Q.GetCustomer(ctx, id)
	if err != nil {
		return "", mapError(err)
	}
	n, err := s.Q.DeleteCustomer(ctx, id)
	if err != nil {
		return "", mapError(err)
	}
	if n == 0 {
		return "", common.NotFound("customer")
	}
	s.invalidate(ctx)
	return "Customer " + fullName(c) + " deleted successfully!", nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			s.Logger.Warn().Err(err).Msg("invalidate report cache")
		}
	}
}

func fullName(c store.Customer) string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func toCustomer(c store.Customer, stats report.CustomerStats) Customer {
	if stats.LatestOrderNumber == "" {
		stats = report.Customer(nil)
	}
	return Customer{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  fullName(c),
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		Stats:     stats,
	}
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound("customer")
	case store.IsUniqueViolation(err):
		return common.NewAppError("CONFLICT", "another customer already uses this phone number", http.StatusConflict, err)
	default:
		return err
	}
}

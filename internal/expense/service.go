// Package expense records business expenses, either general or tied to an order.
package expense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/cache"
	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/money"
	"github.com/noah-isme/backend-tieshop/internal/obs"
	"github.com/noah-isme/backend-tieshop/internal/store"
)

// NewTypeSentinel selects custom_expense_type as the expense type.
const NewTypeSentinel = "__new__"

// Querier defines the database access required for expenses.
type Querier interface {
	CreateExpense(ctx context.Context, arg store.CreateExpenseParams) (store.Expense, error)
	GetExpense(ctx context.Context, id int64) (store.Expense, error)
	UpdateExpense(ctx context.Context, arg store.UpdateExpenseParams) (store.Expense, error)
	DeleteExpense(ctx context.Context, id int64) (int64, error)
	ListExpenses(ctx context.Context, arg store.ListExpensesParams) ([]store.Expense, error)
	CountExpenses(ctx context.Context, orderID *int64) (int64, error)
	ListExpenseDescriptions(ctx context.Context) ([]string, error)
	ListExpenseTypes(ctx context.Context) ([]string, error)
}

// Expense is the API representation of an expense.
type Expense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	ExpenseType string          `json:"expense_type"`
	OrderID     *int64          `json:"order_id"`
	OrderNumber *string         `json:"order_number"`
	Date        time.Time       `json:"date"`
}

// Input is the create and update payload.
type Input struct {
	Description       string     `json:"description" validate:"required,max=255"`
	Amount            money.Text `json:"amount" validate:"required"`
	ExpenseType       string     `json:"expense_type" validate:"required,max=100"`
	CustomExpenseType string     `json:"custom_expense_type" validate:"max=100"`
	OrderID           *int64     `json:"order_id" validate:"omitempty,gt=0"`
	Date              string     `json:"date"`
}

// Result pairs an expense with the confirmation message shown to the admin.
type Result struct {
	Expense Expense `json:"expense"`
	Message string  `json:"message"`
}

// Suggestions feed autocomplete on the expense form.
type Suggestions struct {
	Descriptions []string `json:"expense_descriptions"`
	Types        []string `json:"expense_types"`
}

// Service orchestrates expense operations.
type Service struct {
	Q        Querier
	Cache    cache.Invalidator
	Logger   zerolog.Logger
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return now
}

type fields struct {
	description string
	amount      decimal.Decimal
	expenseType string
	orderID     *int64
	date        time.Time
}

func (s *Service) parseInput(in Input) (fields, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.ExpenseType = strings.TrimSpace(in.ExpenseType)
	in.CustomExpenseType = strings.TrimSpace(in.CustomExpenseType)
	if err := common.ValidateStruct(in); err != nil {
		return fields{}, err
	}
	details := map[string]string{}
	f := fields{description: in.Description, expenseType: in.ExpenseType, orderID: in.OrderID}
	if f.expenseType == NewTypeSentinel {
		if in.CustomExpenseType == "" {
			details["custom_expense_type"] = "is required"
		}
		f.expenseType = in.CustomExpenseType
	}

	amount, err := in.Amount.Decimal()
	switch {
	case errors.Is(err, money.ErrPrecision):
		details["amount"] = "must have at most 2 decimal places"
	case errors.Is(err, money.ErrRange):
		details["amount"] = "must be less than 100,000,000"
	case err != nil:
		return fields{}, common.ParseError(err)
	case amount.IsNegative():
		details["amount"] = "must not be negative"
	}
	f.amount = amount

	if len(details) > 0 {
		return fields{}, common.ValidationError(details)
	}

	if strings.TrimSpace(in.Date) == "" {
		f.date = s.now()
	} else {
		d, err := common.ParseDate(in.Date, s.Location)
		if err != nil {
			return fields{}, common.ParseError(err)
		}
		f.date = d
	}
	return f, nil
}

// Create records an expense.
func (s *Service) Create(ctx context.Context, in Input) (Result, error) {
	f, err := s.parseInput(in)
	if err != nil {
		return Result{}, err
	}
	e, err := s.Q.CreateExpense(ctx, store.CreateExpenseParams{
		Description: f.description,
		Amount:      f.amount,
		ExpenseType: f.expenseType,
		OrderID:     f.orderID,
		Date:        f.date,
	})
	if err != nil {
		return Result{}, mapError(err)
	}
	obs.ObserveExpense(scope(e))
	s.invalidate(ctx)
	s.Logger.Info().
		Int64("expense_id", e.ID).
		Str("expense_type", e.ExpenseType).
		Str("amount", e.Amount.StringFixed(2)).
		Msg("expense recorded")
	return Result{Expense: toExpense(e), Message: "Expense added successfully!"}, nil
}

// Get loads one expense.
func (s *Service) Get(ctx context.Context, id int64) (Expense, error) {
	e, err := s.Q.GetExpense(ctx, id)
	if err != nil {
		return Expense{}, mapError(err)
	}
	return toExpense(e), nil
}

// Update replaces an expense's fields.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Result, error) {
	f, err := s.parseInput(in)
	if err != nil {
		return Result{}, err
	}
	e, err := s.Q.UpdateExpense(ctx, store.UpdateExpenseParams{
		ID:          id,
		Description: f.description,
		Amount:      f.amount,
		ExpenseType: f.expenseType,
		OrderID:     f.orderID,
		Date:        f.date,
	})
	if err != nil {
		return Result{}, mapError(err)
	}
	s.invalidate(ctx)
	return Result{Expense: toExpense(e), Message: "Expense updated successfully!"}, nil
}

// Delete removes an expense and returns the confirmation message.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	e, err := s.Q.GetExpense(ctx, id)
	if err != nil {
		return "", mapError(err)
	}
	n, err := s.Q.DeleteExpense(ctx, id)
	if err != nil {
		return "", mapError(err)
	}
	if n == 0 {
		return "", common.NotFound("expense")
	}
	s.invalidate(ctx)
	return fmt.Sprintf("Expense %q deleted successfully!", e.Description), nil
}

// List returns expenses newest first, optionally for one order.
func (s *Service) List(ctx context.Context, orderID *int64, page, perPage int) ([]Expense, int64, error) {
	if perPage <= 0 {
		perPage = 10
	}
	total, err := s.Q.CountExpenses(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.Q.ListExpenses(ctx, store.ListExpensesParams{
		OrderID: orderID,
		Limit:   int32(perPage),
		Offset:  int32(common.Offset(page, perPage)),
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]Expense, 0, len(rows))
	for _, e := range rows {
		out = append(out, toExpense(e))
	}
	return out, total, nil
}

// Suggest returns the distinct descriptions and types recorded so far.
func (s *Service) Suggest(ctx context.Context) (Suggestions, error) {
	descriptions, err := s.Q.ListExpenseDescriptions(ctx)
	if err != nil {
		return Suggestions{}, err
	}
	types, err := s.Q.ListExpenseTypes(ctx)
	if err != nil {
		return Suggestions{}, err
	}
	if descriptions == nil {
		descriptions = []string{}
	}
	if types == nil {
		types = []string{}
	}
	return Suggestions{Descriptions: descriptions, Types: types}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Invalidate(ctx); err != nil {
		s.Logger.Warn().Err(err).Msg("invalidate report cache")
	}
}

func scope(e store.Expense) string {
	if e.OrderID != nil {
		return "order"
	}
	return "general"
}

func toExpense(e store.Expense) Expense {
	return Expense{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		ExpenseType: e.ExpenseType,
		OrderID:     e.OrderID,
		OrderNumber: e.OrderNumber,
		Date:        e.Date,
	}
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case common.IsAppError(err):
		return err
	case errors.Is(err, store.ErrNotFound):
		return common.NotFound("expense")
	case store.IsForeignKeyViolation(err):
		return common.ValidationError(map[string]string{"order_id": "order not found"})
	default:
		return err
	}
}

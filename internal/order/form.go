package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-tieshop/internal/common"
	"github.com/noah-isme/backend-tieshop/internal/money"
	"github.com/noah-isme/backend-tieshop/internal/pricing"
)

// Upper bounds for counted fields; both are stored as 32-bit integers.
const (
	MaxQuantity       = 100000
	MaxPackagingBoxes = 100000
)

// ItemInput references a product by id or SKU.
type ItemInput struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100000"`
}

// Input is the order form used for both create and full update.
type Input struct {
	Name                   string      `json:"name" validate:"required,max=201"`
	Phone                  string      `json:"phone" validate:"required,min=10,max=20"`
	Email                  string      `json:"email" validate:"omitempty,email"`
	Address                string      `json:"address"`
	OrderDate              string      `json:"order_date"`
	Status                 string      `json:"status" validate:"omitempty,oneof=new processing shipped delivered returned"`
	DeliveryPaymentType    string      `json:"delivery_payment_type" validate:"omitempty,oneof=customer business shared"`
	CustomerDeliveryAmount money.Text  `json:"customer_delivery_amount"`
	BusinessDeliveryAmount money.Text  `json:"business_delivery_amount"`
	PackagingBoxes         int         `json:"packaging_boxes" validate:"gte=0,lte=100000"`
	Items                  []ItemInput `json:"items" validate:"required,min=1,dive"`
}

type draft struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Address        string
	OrderDate      *time.Time
	Status         Status
	Delivery       pricing.Delivery
	PackagingBoxes int32
	Items          []ItemInput
}

// SplitName splits a full name at the first space.
func SplitName(full string) (first, last string) {
	first, last, _ = strings.Cut(strings.TrimSpace(full), " ")
	return first, strings.TrimSpace(last)
}

func parseInput(in Input, loc *time.Location) (draft, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	if err := common.ValidateStruct(in); err != nil {
		return draft{}, err
	}

	details := map[string]string{}
	customerAmount, err := parseAmount(in.CustomerDeliveryAmount, "customer_delivery_amount", details)
	if err != nil {
		return draft{}, err
	}
	businessAmount, err := parseAmount(in.BusinessDeliveryAmount, "business_delivery_amount", details)
	if err != nil {
		return draft{}, err
	}

	policy := pricing.DeliveryPolicy(in.DeliveryPaymentType)
	if policy == "" {
		policy = pricing.DeliveryCustomer
	}
	if policy == pricing.DeliveryShared && customerAmount.IsZero() && businessAmount.IsZero() {
		details["delivery_payment_type"] = "for shared payment, at least one delivery amount must be specified"
	}

	for i, it := range in.Items {
		if it.ProductID <= 0 && strings.TrimSpace(it.SKU) == "" {
			details[fmt.Sprintf("items[%d].product_id", i)] = "product_id or sku is required"
		}
	}

	var orderDate *time.Time
	if strings.TrimSpace(in.OrderDate) != "" {
		t, err := common.ParseDate(in.OrderDate, loc)
		if err != nil {
			return draft{}, common.ParseError(err)
		}
		orderDate = &t
	}

	if len(details) > 0 {
		return draft{}, common.ValidationError(details)
	}

	status := Status(in.Status)
	first, last := SplitName(in.Name)
	return draft{
		FirstName: first,
		LastName:  last,
		Email:     in.Email,
		Phone:     in.Phone,
		Address:   in.Address,
		OrderDate: orderDate,
		Status:    status,
		Delivery: pricing.Delivery{
			Policy:         policy,
			Fee:            customerAmount.Add(businessAmount),
			CustomerAmount: customerAmount,
			BusinessAmount: businessAmount,
		},
		PackagingBoxes: int32(in.PackagingBoxes),
		Items:          in.Items,
	}, nil
}

// parseAmount returns a parse error for unreadable input and records
// range problems in details.
func checkQuantity(q int) error {
	switch {
	case q < 1:
		return common.ValidationError(map[string]string{"quantity": "must be at least 1"})
	case q > MaxQuantity:
		return common.ValidationError(map[string]string{"quantity": fmt.Sprintf("must be at most %d", MaxQuantity)})
	}
	return nil
}

func parseAmount(raw money.Text, field string, details map[string]string) (decimal.Decimal, error) {
	d, err := raw.Decimal()
	switch {
	case errors.Is(err, money.ErrPrecision):
		details[field] = "must have at most 2 decimal places"
		return decimal.Zero, nil
	case errors.Is(err, money.ErrRange):
		details[field] = "must be less than 100,000,000"
		return decimal.Zero, nil
	case err != nil:
		return decimal.Zero, common.ParseError(err)
	case d.IsNegative():
		details[field] = "must not be negative"
	}
	return d, nil
}

package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Places is the number of fraction digits stored for every monetary value.
const Places = 2

var (
	// ErrInvalid is returned when a value cannot be read as a decimal amount.
	ErrInvalid = errors.New("money: invalid amount")
	// ErrPrecision is returned when a value carries more than two fraction digits.
	ErrPrecision = errors.New("money: at most 2 decimal places allowed")
	// ErrRange is returned when a value does not fit a NUMERIC(10,2) column.
	ErrRange = errors.New("money: amount out of range")

	// Limit is the exclusive magnitude bound of a stored amount.
	Limit = decimal.New(1, 8)

	hundred = decimal.NewFromInt(100)
	printer = message.NewPrinter(language.English)
)

// Parse reads a user supplied amount such as "1,250.50" or "₦ 300". Thousands
// separators and a leading currency symbol are tolerated.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₦")
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalid
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalid, raw)
	}
	if err := CheckScale(d); err != nil {
		return decimal.Zero, err
	}
	if err := CheckRange(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseOptional behaves like Parse but treats an empty value as zero.
func ParseOptional(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return Parse(raw)
}

// CheckScale rejects values that cannot be stored with two fraction digits.
func CheckScale(d decimal.Decimal) error {
	if !d.Equal(d.Round(Places)) {
		return ErrPrecision
	}
	return nil
}

// CheckRange rejects values whose magnitude reaches Limit.
func CheckRange(d decimal.Decimal) error {
	if d.Abs().GreaterThanOrEqual(Limit) {
		return ErrRange
	}
	return nil
}

// Percent returns part/whole*100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// PerUnit divides total by count, returning zero when count is zero.
func PerUnit(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count))
}

// Format renders d with English grouping and the given number of decimals,
// e.g. Format(1234567.891, 2) == "1,234,567.89". Rounding is half away from
// zero and happens on the decimal before the float conversion.
func Format(d decimal.Decimal, places int32) string {
	f, _ := d.Round(places).Float64()
	return printer.Sprint(number.Decimal(f, number.Scale(int(places))))
}

// Text holds a monetary field exactly as submitted. JSON strings and numbers are
// both accepted; conversion to a decimal happens through Decimal.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*t = ""
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		*t = Text(trimmed)
	}
	return nil
}

// Decimal parses the text, treating an empty value as zero.
func (t Text) Decimal() (decimal.Decimal, error) {
	return ParseOptional(string(t))
}

package money

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsFormattedStrings(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"20000", "20000"},
		{"20,000", "20000"},
		{"₦ 1,234.50", "1234.5"},
		{"  12.05 ", "12.05"},
		{"-3", "-3"},
	}
	for _, tc := range cases {
		d, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.in, err)
		}
		if d.String() != tc.expected {
			t.Fatalf("Parse(%q) expected %s, got %s", tc.in, tc.expected, d.String())
		}
	}
}

func TestParseRejectsGarbageAndPrecision(t *testing.T) {
	_, err := Parse("abc")
	require.ErrorIs(t, err, ErrInvalid)
	_, err = Parse("")
	require.ErrorIs(t, err, ErrInvalid)
	_, err = Parse("1.005")
	require.True(t, errors.Is(err, ErrPrecision))

	_, err = Parse("1e9")
	require.ErrorIs(t, err, ErrInvalid)

	zero, err := ParseOptional("  ")
	require.NoError(t, err)
	require.True(t, zero.IsZero())
}

func TestParseRejectsOutOfRange(t *testing.T) {
	_, err := Parse("100000000")
	require.ErrorIs(t, err, ErrRange)
	_, err = Parse("-100,000,000.00")
	require.ErrorIs(t, err, ErrRange)

	d, err := Parse("99,999,999.99")
	require.NoError(t, err)
	require.Equal(t, "99999999.99", d.String())

	require.ErrorIs(t, CheckRange(decimal.New(1, 9)), ErrRange)
	require.NoError(t, CheckRange(decimal.NewFromInt(-5)))
}

func TestPercentGuardsZero(t *testing.T) {
	require.True(t, Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
	require.True(t, Percent(decimal.NewFromInt(5), decimal.NewFromInt(-1)).IsZero())
	require.Equal(t, "25", Percent(decimal.NewFromInt(5), decimal.NewFromInt(20)).String())
}

func TestPerUnit(t *testing.T) {
	require.True(t, PerUnit(decimal.NewFromInt(10), 0).IsZero())
	require.Equal(t, "2.5", PerUnit(decimal.NewFromInt(10), 4).String())
}

func TestFormat(t *testing.T) {
	require.Equal(t, "1,234,567.89", Format(decimal.RequireFromString("1234567.891"), 2))
	require.Equal(t, "1,235", Format(decimal.RequireFromString("1234.6"), 0))
	require.Equal(t, "999.00", Format(decimal.NewFromInt(999), 2))
	require.Equal(t, "-12,000", Format(decimal.NewFromInt(-12000), 0))
	require.Equal(t, "0.00", Format(decimal.Zero, 2))
	require.Equal(t, "2.50", Format(decimal.RequireFromString("2.495"), 2))
	require.Equal(t, "12,345,678,901.25", Format(decimal.RequireFromString("12345678901.25"), 2))
}

func TestTextAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1,500.25","b":12.5,"c":null}`), &payload))

	a, err := payload.A.Decimal()
	require.NoError(t, err)
	require.Equal(t, "1500.25", a.String())
	b, err := payload.B.Decimal()
	require.NoError(t, err)
	require.Equal(t, "12.5", b.String())
	c, err := payload.C.Decimal()
	require.NoError(t, err)
	require.True(t, c.IsZero())
}

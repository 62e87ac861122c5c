package order

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextNumber(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty", nil, "00001"},
		{"skips gaps and non numeric", []string{"00001", "00003", "abc"}, "00004"},
		{"unpadded legacy", []string{"7", "00002"}, "00008"},
		{"negative ignored", []string{"-5"}, "00001"},
		{"past width", []string{"99999"}, "100000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, NextNumber(tc.existing))
		})
	}
}

func TestNumericSortMatchesPaddedOrder(t *testing.T) {
	require.Less(t, FormatNumber(9), FormatNumber(10))
	require.Less(t, FormatNumber(999), FormatNumber(1000))
}

package order

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberWidth is the zero-padded width of generated order numbers.
const NumberWidth = 5

// MaxNumeric returns the largest order number that parses as a non-negative
// integer. Non-numeric numbers are ignored.
func MaxNumeric(existing []string) int64 {
	var max int64
	for _, raw := range existing {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

// FormatNumber zero-pads n to NumberWidth digits. Larger values keep all digits.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%0*d", NumberWidth, n)
}

// NextNumber returns the number following the highest numeric entry of existing.
func NextNumber(existing []string) string {
	return FormatNumber(MaxNumeric(existing) + 1)
}

package common

import (
	"fmt"
	"strings"
	"time"
)

// DateLayouts lists the accepted input layouts in the order they are tried.
var DateLayouts = []string{"02/01/2006", "2006-01-02"}

// ParseDate reads a calendar date as DD/MM/YYYY or YYYY-MM-DD and returns
// midnight of that day in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	value := strings.TrimSpace(raw)
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must be DD/MM/YYYY or YYYY-MM-DD", raw)
}

package domain

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month key in "YYYY-MM" form. It is the granularity for
// budget overrides, health reports and warehouse exports.
type Month string

// ParseMonth validates a month string and returns the normalized key.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parse month %q: %w", s, err)
	}
	return Month(t.Format("2006-01")), nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format("2006-01"))
}

// CurrentMonth returns the month containing the current wall-clock time.
func CurrentMonth() Month {
	return MonthOf(time.Now())
}

func (m Month) String() string { return string(m) }

// Bounds returns the half-open interval [start, end) covering the month.
func (m Month) Bounds() (time.Time, time.Time) {
	start, _ := time.Parse("2006-01", string(m))
	return start, start.AddDate(0, 1, 0)
}

// Prev returns the preceding calendar month.
func (m Month) Prev() Month {
	start, _ := time.Parse("2006-01", string(m))
	return Month(start.AddDate(0, -1, 0).Format("2006-01"))
}

// Valid reports whether m is a well-formed month key.
func (m Month) Valid() bool {
	_, err := ParseMonth(string(m))
	return err == nil
}

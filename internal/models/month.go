package models

import (
	"fmt"
	"time"
)

// MonthKey identifies a billing month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// NewMonthKey creates a month key from a month and year.
func NewMonthKey(month time.Month, year int) MonthKey {
	return MonthKey{Year: year, Month: month}
}

// String returns the key formatted as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// IsZero reports whether the key is unset.
func (k MonthKey) IsZero() bool {
	return k.Year == 0 && k.Month == 0
}

// Before reports whether k is strictly earlier than other.
func (k MonthKey) Before(other MonthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// After reports whether k is strictly later than other.
func (k MonthKey) After(other MonthKey) bool {
	return other.Before(k)
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey {
	if k.Month == time.December {
		return MonthKey{Year: k.Year + 1, Month: time.January}
	}
	return MonthKey{Year: k.Year, Month: k.Month + 1}
}

// Prev returns the preceding month.
func (k MonthKey) Prev() MonthKey {
	if k.Month == time.January {
		return MonthKey{Year: k.Year - 1, Month: time.December}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

// ParseMonthKey parses "YYYY-MM" or "MM/YYYY". The whole string must match.
func ParseMonthKey(s string) (MonthKey, error) {
	for _, layout := range []string{"2006-01", "01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewMonthKey(t.Month(), t.Year()), nil
		}
	}
	return MonthKey{}, fmt.Errorf("invalid month %q: want YYYY-MM or MM/YYYY", s)
}

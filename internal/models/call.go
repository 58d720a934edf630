// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp layout used by dataset events.
const TimeLayout = "2006-01-02 15:04:05"

// Location is a geographic point expressed as longitude/latitude.
type Location struct {
	Long float64 `json:"long"`
	Lat  float64 `json:"lat"`
}

// String returns the location as "long, lat".
func (l Location) String() string {
	return fmt.Sprintf("%.6f, %.6f", l.Long, l.Lat)
}

// Call represents a single phone call between two numbers.
type Call struct {
	Time     time.Time
	Src      string
	Dst      string
	SrcLoc   Location
	DstLoc   Location
	Duration int // seconds
}

// BillDate returns the month and year the call is billed in.
func (c Call) BillDate() (time.Month, int) {
	return c.Time.Month(), c.Time.Year()
}

// Month returns the billing month key of the call.
func (c Call) Month() MonthKey {
	return MonthKey{Year: c.Time.Year(), Month: c.Time.Month()}
}

// BilledMinutes returns the call duration rounded up to whole minutes.
func (c Call) BilledMinutes() int {
	if c.Duration <= 0 {
		return 0
	}
	return (c.Duration + 59) / 60
}

// Involves reports whether the number is the source or destination of the call.
func (c Call) Involves(number string) bool {
	return c.Src == number || c.Dst == number
}

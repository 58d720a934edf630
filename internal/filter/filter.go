// Package filter selects subsets of calls for display.
//
// Every filter leaves its arguments untouched and returns calls in the order
// they were given, minus the ones it removes. A query a filter cannot use
// makes it return the input unchanged.
package filter

import (
	"errors"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
)

// ErrInvalidQuery is wrapped by Validate errors.
var ErrInvalidQuery = errors.New("invalid filter query")

// Filter selects calls from data according to query.
type Filter interface {
	// Apply returns the calls of data that match query.
	Apply(customers []*billing.Customer, data []models.Call, query string) []models.Call

	// Description is the one-line help shown in the prompt.
	Description() string
}

// Validator is implemented by filters that can explain why a query is unusable.
type Validator interface {
	Validate(customers []*billing.Customer, query string) error
}

// keepOrAll is keep, except that data is returned unchanged when nothing
// matches.
func keepOrAll(data []models.Call, match func(models.Call) bool) []models.Call {
	if out := keep(data, match); len(out) > 0 {
		return out
	}
	return data
}

// keep returns the calls of data for which match is true.
func keep(data []models.Call, match func(models.Call) bool) []models.Call {
	out := make([]models.Call, 0, len(data))
	for _, c := range data {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}

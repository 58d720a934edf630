package filter

import (
	"fmt"
	"strings"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
)

// Month keeps calls placed in one billing month.
type Month struct{}

// Apply keeps calls whose bill date is the month in query.
func (Month) Apply(_ []*billing.Customer, data []models.Call, query string) []models.Call {
	month, err := models.ParseMonthKey(strings.TrimSpace(query))
	if err != nil {
		return data
	}
	return keep(data, func(c models.Call) bool {
		return c.Month() == month
	})
}

// Validate implements Validator.
func (Month) Validate(_ []*billing.Customer, query string) error {
	if _, err := models.ParseMonthKey(strings.TrimSpace(query)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return nil
}

// Description implements Filter.
func (Month) Description() string {
	return "Filter calls made in a given month. Format: YYYY-MM or MM/YYYY"
}

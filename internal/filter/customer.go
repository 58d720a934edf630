package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
)

// Customer keeps calls made or received by one customer.
type Customer struct{}

// Apply keeps calls whose source or destination belongs to the customer whose
// ID is query. When none of data involves the customer, data is returned.
func (f Customer) Apply(customers []*billing.Customer, data []models.Call, query string) []models.Call {
	cust, err := f.lookup(customers, query)
	if err != nil {
		return data
	}
	return keepOrAll(data, func(c models.Call) bool {
		return cust.HasNumber(c.Src) || cust.HasNumber(c.Dst)
	})
}

// Validate implements Validator.
func (f Customer) Validate(customers []*billing.Customer, query string) error {
	_, err := f.lookup(customers, query)
	return err
}

func (Customer) lookup(customers []*billing.Customer, query string) (*billing.Customer, error) {
	q := strings.TrimSpace(query)
	id, err := strconv.Atoi(q)
	if err != nil || id < 0 {
		return nil, fmt.Errorf("%w: %q is not a customer ID", ErrInvalidQuery, query)
	}
	for _, c := range customers {
		if c.ID() == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: no customer with ID %d", ErrInvalidQuery, id)
}

// Description implements Filter.
func (Customer) Description() string {
	return "Filter events based on customer ID"
}

package filter

import (
	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
)

// Reset discards every applied filter.
type Reset struct{}

// Apply returns every customer's outgoing calls. data and query are ignored.
func (Reset) Apply(customers []*billing.Customer, _ []models.Call, _ string) []models.Call {
	calls := []models.Call{}
	for _, c := range customers {
		out, _ := c.History()
		calls = append(calls, out...)
	}
	return calls
}

// Description implements Filter.
func (Reset) Description() string {
	return "Reset all of the filters applied so far, if any"
}

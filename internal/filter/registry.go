package filter

import (
	"fmt"
	"strings"

	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/geo"
	"github.com/j-veylop/callmap/internal/models"
)

// Keys bound to the built-in filters.
const (
	KeyCustomer = "c"
	KeyDuration = "d"
	KeyLocation = "l"
	KeyMonth    = "m"
	KeyReset    = "r"
)

// Applied is one step of the active filter chain.
type Applied struct {
	Key   string
	Query string
}

// String formats the step as "key:query".
func (a Applied) String() string {
	return fmt.Sprintf("%s:%s", strings.ToUpper(a.Key), a.Query)
}

// Registry maps keys to filters and remembers which have been applied since
// the last reset.
type Registry struct {
	filters map[string]Filter
	keys    []string
	chain   []Applied
}

// NewRegistry creates a registry with the built-in filters. mapBounds limits
// the rectangles accepted by the location filter.
func NewRegistry(mapBounds geo.Bounds) *Registry {
	r := &Registry{filters: make(map[string]Filter)}
	r.Register(KeyCustomer, Customer{})
	r.Register(KeyDuration, Duration{})
	r.Register(KeyLocation, Location{Map: mapBounds})
	r.Register(KeyMonth, Month{})
	r.Register(KeyReset, Reset{})
	return r
}

// Register binds f to key, replacing any previous binding.
func (r *Registry) Register(key string, f Filter) {
	key = strings.ToLower(key)
	if _, ok := r.filters[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.filters[key] = f
}

// Lookup returns the filter bound to key.
func (r *Registry) Lookup(key string) (Filter, bool) {
	f, ok := r.filters[strings.ToLower(key)]
	return f, ok
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Apply runs the filter bound to key. An invalid query returns data unchanged
// together with the reason; the chain is only extended on success. The reset
// filter clears the chain.
func (r *Registry) Apply(key string, customers []*billing.Customer, data []models.Call, query string) ([]models.Call, error) {
	key = strings.ToLower(key)
	f, ok := r.filters[key]
	if !ok {
		return data, fmt.Errorf("%w: no filter bound to %q", ErrInvalidQuery, key)
	}

	if v, ok := f.(Validator); ok {
		if err := v.Validate(customers, query); err != nil {
			return data, err
		}
	}

	result := f.Apply(customers, data, query)
	if _, isReset := f.(Reset); isReset {
		r.chain = nil
	} else {
		r.chain = append(r.chain, Applied{Key: key, Query: strings.TrimSpace(query)})
	}
	return result, nil
}

// Chain returns the filters applied since the last reset.
func (r *Registry) Chain() []Applied {
	return append([]Applied(nil), r.chain...)
}

// ChainString formats the chain for a status line.
func (r *Registry) ChainString() string {
	if len(r.chain) == 0 {
		return "none"
	}
	parts := make([]string, len(r.chain))
	for i, a := range r.chain {
		parts[i] = a.String()
	}
	return strings.Join(parts, " → ")
}

// Replay reapplies the chain to the full call set. It is used after the
// dataset is reloaded.
func (r *Registry) Replay(customers []*billing.Customer) []models.Call {
	data := Reset{}.Apply(customers, nil, "")
	for _, a := range r.chain {
		if f, ok := r.filters[a.Key]; ok {
			data = f.Apply(customers, data, a.Query)
		}
	}
	return data
}

package billing

import (
	"slices"

	"github.com/j-veylop/callmap/internal/models"
)

// CallHistory records the outgoing and incoming calls of a line by month.
type CallHistory struct {
	outgoing map[models.MonthKey][]models.Call
	incoming map[models.MonthKey][]models.Call
}

// NewCallHistory creates an empty history.
func NewCallHistory() *CallHistory {
	return &CallHistory{
		outgoing: make(map[models.MonthKey][]models.Call),
		incoming: make(map[models.MonthKey][]models.Call),
	}
}

// RegisterOutgoing records a call made from the line.
func (h *CallHistory) RegisterOutgoing(call models.Call) {
	k := call.Month()
	h.outgoing[k] = append(h.outgoing[k], call)
}

// RegisterIncoming records a call received by the line.
func (h *CallHistory) RegisterIncoming(call models.Call) {
	k := call.Month()
	h.incoming[k] = append(h.incoming[k], call)
}

// Monthly returns copies of the outgoing and incoming calls of one month.
func (h *CallHistory) Monthly(month models.MonthKey) (out, in []models.Call) {
	return slices.Clone(h.outgoing[month]), slices.Clone(h.incoming[month])
}

// All returns every outgoing and incoming call in chronological month order.
func (h *CallHistory) All() (out, in []models.Call) {
	for _, k := range h.Months() {
		out = append(out, h.outgoing[k]...)
		in = append(in, h.incoming[k]...)
	}
	return out, in
}

// Months returns every month with recorded activity, oldest first.
func (h *CallHistory) Months() []models.MonthKey {
	seen := make(map[models.MonthKey]struct{}, len(h.outgoing)+len(h.incoming))
	var keys []models.MonthKey
	for _, m := range []map[models.MonthKey][]models.Call{h.outgoing, h.incoming} {
		for k := range m {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	slices.SortFunc(keys, func(a, b models.MonthKey) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		default:
			return 0
		}
	})
	return keys
}

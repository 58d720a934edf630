package billing

import (
	"fmt"
	"slices"

	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
)

// Result is the outcome of replaying a dataset.
type Result struct {
	Customers []*Customer
	Months    []models.MonthKey
	Calls     int
	SMS       int
	Unmatched int
}

// Customer returns the customer with id, or nil.
func (r *Result) Customer(id int) *Customer {
	for _, c := range r.Customers {
		if c.id == id {
			return c
		}
	}
	return nil
}

// OutgoingCalls returns every customer's outgoing calls, customers in dataset
// order. Each call appears once.
func (r *Result) OutgoingCalls() []models.Call {
	var calls []models.Call
	for _, c := range r.Customers {
		out, _ := c.History()
		calls = append(calls, out...)
	}
	return calls
}

// Simulator replays dataset events against customers' contracts.
type Simulator struct {
	opts ContractOptions
}

// NewSimulator creates a simulator using opts for every new contract.
func NewSimulator(opts ContractOptions) *Simulator {
	return &Simulator{opts: opts}
}

// Process builds customers from ds and replays its events in time order.
// Every customer is advanced to each new month as the replay reaches it.
func (s *Simulator) Process(ds *models.Dataset) (*Result, error) {
	res := &Result{}
	byNumber := make(map[string]*Customer)

	for _, spec := range ds.Customers {
		cust := NewCustomer(spec.ID)
		for _, ls := range spec.Lines {
			if _, dup := byNumber[ls.Number]; dup {
				return nil, fmt.Errorf("customer %d: duplicate phone number %s", spec.ID, ls.Number)
			}
			contract, err := NewContract(ls.Contract, s.opts)
			if err != nil {
				return nil, fmt.Errorf("customer %d line %s: %w", spec.ID, ls.Number, err)
			}
			cust.AddLine(NewPhoneLine(ls.Number, contract))
			byNumber[ls.Number] = cust
		}
		res.Customers = append(res.Customers, cust)
	}

	events := slices.Clone(ds.Events)
	slices.SortStableFunc(events, func(a, b models.Event) int {
		return a.Time.Compare(b.Time)
	})

	var current models.MonthKey
	for _, ev := range events {
		month := models.NewMonthKey(ev.Time.Month(), ev.Time.Year())
		if month != current {
			current = month
			res.Months = append(res.Months, month)
			for _, c := range res.Customers {
				c.NewMonth(month)
			}
		}

		switch ev.Type {
		case models.EventSMS:
			res.SMS++
		case models.EventCall:
			res.Calls++
			s.recordCall(res, byNumber, ev.Call())
		}
	}

	logger.Debug("dataset replayed",
		"customers", len(res.Customers),
		"calls", res.Calls,
		"sms", res.SMS,
		"unmatched", res.Unmatched,
	)

	return res, nil
}

// recordCall charges the caller and logs the call on the receiver's line. Calls
// from numbers outside the dataset are counted as unmatched.
func (s *Simulator) recordCall(res *Result, byNumber map[string]*Customer, call models.Call) {
	caller, ok := byNumber[call.Src]
	if !ok || caller.MakeCall(call) != nil {
		res.Unmatched++
	}
	if callee, ok := byNumber[call.Dst]; ok {
		_ = callee.ReceiveCall(call)
	}
}

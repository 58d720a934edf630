package services

import (
	"github.com/j-veylop/callmap/internal/billing"
	"github.com/j-veylop/callmap/internal/models"
)

// Snapshot is an immutable view of one replayed dataset.
type Snapshot struct {
	Result *billing.Result
	// Contracts maps each customer phone number to its contract type.
	Contracts map[string]string
	// Calls holds every customer's outgoing calls, customers in dataset order.
	Calls []models.Call
	Load  models.LoadRecord
	Stats models.DatasetStats

	// allCalls includes calls placed from numbers outside the dataset.
	allCalls []models.Call
	bills    []models.CustomerBill
}

func newSnapshot(ds *models.Dataset, res *billing.Result) *Snapshot {
	s := &Snapshot{
		Result:    res,
		Contracts: make(map[string]string),
		Calls:     res.OutgoingCalls(),
	}

	lines := 0
	for _, c := range res.Customers {
		for _, l := range c.Lines() {
			s.Contracts[l.Number()] = l.ContractType()
			lines++
		}
	}

	for _, e := range ds.Events {
		if e.Type == models.EventCall {
			s.allCalls = append(s.allCalls, e.Call())
		}
	}

	for _, c := range res.Customers {
		for _, month := range res.Months {
			if bill := c.GenerateBill(month); len(bill.Lines) > 0 {
				s.bills = append(s.bills, bill)
			}
		}
	}

	s.Stats = models.DatasetStats{
		Customers: len(res.Customers),
		Lines:     lines,
		Calls:     res.Calls,
		SMS:       res.SMS,
		Unmatched: res.Unmatched,
	}
	for i, c := range s.allCalls {
		if i == 0 || c.Time.Before(s.Stats.FirstCall) {
			s.Stats.FirstCall = c.Time
		}
		if c.Time.After(s.Stats.LastCall) {
			s.Stats.LastCall = c.Time
		}
		s.Stats.TotalSecs += int64(c.Duration)
	}
	for _, b := range s.bills {
		s.Stats.TotalOwing += b.Total
	}

	return s
}

// Bills returns every customer's bill for every month of the dataset.
// Months in which a customer had no line billed are omitted.
func (s *Snapshot) Bills() []models.CustomerBill {
	return s.bills
}

// Months returns the billing months covered by the dataset, oldest first.
func (s *Snapshot) Months() []models.MonthKey {
	return s.Result.Months
}

// MonthlyStats aggregates calls and revenue per month without the archive.
func (s *Snapshot) MonthlyStats() []models.MonthlyStats {
	index := make(map[models.MonthKey]int, len(s.Result.Months))
	stats := make([]models.MonthlyStats, 0, len(s.Result.Months))
	for _, month := range s.Result.Months {
		index[month] = len(stats)
		stats = append(stats, models.MonthlyStats{Month: month})
	}

	for _, c := range s.allCalls {
		i, ok := index[c.Month()]
		if !ok {
			continue
		}
		stats[i].Calls++
		stats[i].TotalSeconds += int64(c.Duration)
		stats[i].BilledMinutes += int64(c.BilledMinutes())
	}
	for _, b := range s.bills {
		if i, ok := index[b.Month]; ok {
			stats[i].Revenue += b.Total
		}
	}
	return stats
}

// Patterns counts calls by hour of day and by weekday (Sunday first).
func Patterns(calls []models.Call) (hourly [24]float64, weekly [7]float64) {
	for _, c := range calls {
		hourly[c.Time.Hour()]++
		weekly[c.Time.Weekday()]++
	}
	return hourly, weekly
}

// Package billing models phone lines, their contracts and monthly bills, and
// replays a dataset's call history against them.
package billing

import "github.com/j-veylop/callmap/internal/models"

// Bill accumulates the charges of one phone line for one month.
type Bill struct {
	contractType string
	rate         float64
	fixed        float64
	freeMinutes  int
	billed       int
}

// NewBill creates an empty bill.
func NewBill() *Bill {
	return &Bill{}
}

// SetRates sets the contract type and the per-minute rate.
func (b *Bill) SetRates(contractType string, rate float64) {
	b.contractType = contractType
	b.rate = rate
}

// AddFixedCost adds a fixed amount; negative amounts are refunds.
func (b *Bill) AddFixedCost(amount float64) {
	b.fixed += amount
}

// AddFreeMinutes records minutes covered by the contract.
func (b *Bill) AddFreeMinutes(minutes int) {
	b.freeMinutes += minutes
}

// AddBilledMinutes records minutes charged at the bill's rate.
func (b *Bill) AddBilledMinutes(minutes int) {
	b.billed += minutes
}

// FreeMinutes returns the free minutes used so far.
func (b *Bill) FreeMinutes() int {
	return b.freeMinutes
}

// BilledMinutes returns the charged minutes so far.
func (b *Bill) BilledMinutes() int {
	return b.billed
}

// Cost returns the total amount owed for the month.
func (b *Bill) Cost() float64 {
	return b.fixed + float64(b.billed)*b.rate
}

// Summary returns an itemised copy of the bill.
func (b *Bill) Summary() models.BillSummary {
	return models.BillSummary{
		Type:          b.contractType,
		Fixed:         b.fixed,
		FreeMinutes:   b.freeMinutes,
		BilledMinutes: b.billed,
		MinuteRate:    b.rate,
		Total:         b.Cost(),
	}
}

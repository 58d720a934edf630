package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/callmap/internal/models"
)

// Month-to-month contract rates.
const (
	MTMMonthlyFee = 50.00
	MTMMinuteCost = 0.05
)

// Term contract rates. Each month includes TermFreeMinutes.
const (
	TermMonthlyFee  = 20.00
	TermDeposit     = 300.00
	TermFreeMinutes = 100
	TermMinuteCost  = 0.1
)

// Prepaid contract rates. When the remaining credit at the start of a month is
// below PrepaidTopUpThreshold the customer is charged PrepaidTopUp.
const (
	PrepaidMinuteCost     = 0.025
	PrepaidTopUpThreshold = 10.00
	PrepaidTopUp          = 25.00
)

var (
	// ErrUnknownContract is returned for contract names outside term/mtm/prepaid.
	ErrUnknownContract = errors.New("unknown contract type")
	// ErrCancelled is returned when a cancelled contract is used again.
	ErrCancelled = errors.New("contract already cancelled")
)

// Contract is the billing policy attached to a phone line.
type Contract interface {
	// Type returns the dataset name of the contract.
	Type() string

	// NewMonth advances the contract to a new month and attaches bill to it.
	NewMonth(month models.MonthKey, bill *Bill)

	// BillCall charges the call to the current bill.
	BillCall(call models.Call)

	// Cancel closes the contract and returns the amount owed.
	Cancel() (float64, error)

	// Start returns the contract start date.
	Start() time.Time
}

// ContractOptions holds the dates and amounts used to create contracts.
type ContractOptions struct {
	Start         time.Time
	TermEnd       time.Time
	PrepaidCredit float64
}

// DefaultContractOptions matches the sample dataset's contract terms.
func DefaultContractOptions() ContractOptions {
	return ContractOptions{
		Start:         time.Date(2017, time.December, 25, 0, 0, 0, 0, time.UTC),
		TermEnd:       time.Date(2019, time.June, 25, 0, 0, 0, 0, time.UTC),
		PrepaidCredit: 100,
	}
}

// NewContract creates the contract named by kind.
func NewContract(kind string, opts ContractOptions) (Contract, error) {
	switch kind {
	case models.ContractTerm:
		return NewTermContract(opts.Start, opts.TermEnd), nil
	case models.ContractMTM:
		return NewMTMContract(opts.Start), nil
	case models.ContractPrepaid:
		return NewPrepaidContract(opts.Start, opts.PrepaidCredit), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContract, kind)
	}
}

type baseContract struct {
	start     time.Time
	bill      *Bill
	current   models.MonthKey
	cancelled bool
}

func (c *baseContract) Start() time.Time {
	return c.start
}

func (c *baseContract) attach(month models.MonthKey, bill *Bill) {
	c.bill = bill
	c.current = month
}

func (c *baseContract) isStartMonth(month models.MonthKey) bool {
	return month.Year == c.start.Year() && month.Month == c.start.Month()
}

func (c *baseContract) BillCall(call models.Call) {
	if c.bill == nil {
		return
	}
	c.bill.AddBilledMinutes(call.BilledMinutes())
}

func (c *baseContract) cancel() (float64, error) {
	if c.cancelled {
		return 0, ErrCancelled
	}
	c.cancelled = true
	if c.bill == nil {
		return 0, nil
	}
	return c.bill.Cost(), nil
}

// MTMContract has no commitment and no included minutes.
type MTMContract struct {
	baseContract
}

// NewMTMContract creates a month-to-month contract.
func NewMTMContract(start time.Time) *MTMContract {
	return &MTMContract{baseContract{start: start}}
}

// Type implements Contract.
func (c *MTMContract) Type() string { return models.ContractMTM }

// NewMonth implements Contract.
func (c *MTMContract) NewMonth(month models.MonthKey, bill *Bill) {
	c.attach(month, bill)
	bill.SetRates(models.ContractMTM, MTMMinuteCost)
	bill.AddFixedCost(MTMMonthlyFee)
}

// Cancel implements Contract.
func (c *MTMContract) Cancel() (float64, error) {
	return c.cancel()
}

// TermContract commits the customer until an end date. The deposit charged in
// the first month is refunded only when the contract is cancelled after the
// end month.
type TermContract struct {
	end time.Time
	baseContract
}

// NewTermContract creates a term contract running from start to end.
func NewTermContract(start, end time.Time) *TermContract {
	return &TermContract{baseContract: baseContract{start: start}, end: end}
}

// Type implements Contract.
func (c *TermContract) Type() string { return models.ContractTerm }

// End returns the end of the commitment.
func (c *TermContract) End() time.Time { return c.end }

// NewMonth implements Contract.
func (c *TermContract) NewMonth(month models.MonthKey, bill *Bill) {
	c.attach(month, bill)
	bill.SetRates(models.ContractTerm, TermMinuteCost)
	bill.AddFixedCost(TermMonthlyFee)
	if c.isStartMonth(month) {
		bill.AddFixedCost(TermDeposit)
	}
}

// BillCall uses the month's free minutes before charging.
func (c *TermContract) BillCall(call models.Call) {
	if c.bill == nil {
		return
	}
	minutes := call.BilledMinutes()
	available := max(TermFreeMinutes-c.bill.FreeMinutes(), 0)
	if minutes <= available {
		c.bill.AddFreeMinutes(minutes)
		return
	}
	c.bill.AddFreeMinutes(available)
	c.bill.AddBilledMinutes(minutes - available)
}

// Cancel implements Contract.
func (c *TermContract) Cancel() (float64, error) {
	if c.cancelled {
		return 0, ErrCancelled
	}
	endMonth := models.NewMonthKey(c.end.Month(), c.end.Year())
	if c.bill != nil && c.current.After(endMonth) {
		c.bill.AddFixedCost(-TermDeposit)
	}
	return c.cancel()
}

// PrepaidContract draws calls from a prepaid balance. A negative balance is
// credit; a positive balance is owed.
type PrepaidContract struct {
	baseContract
	balance float64
}

// NewPrepaidContract creates a prepaid contract with an initial credit.
func NewPrepaidContract(start time.Time, credit float64) *PrepaidContract {
	return &PrepaidContract{baseContract: baseContract{start: start}, balance: -credit}
}

// Type implements Contract.
func (c *PrepaidContract) Type() string { return models.ContractPrepaid }

// Balance returns the current balance.
func (c *PrepaidContract) Balance() float64 { return c.balance }

// NewMonth carries the balance into bill. Outside the start month, low credit
// is topped up and the top-up is charged on the bill.
func (c *PrepaidContract) NewMonth(month models.MonthKey, bill *Bill) {
	c.attach(month, bill)
	bill.SetRates(models.ContractPrepaid, PrepaidMinuteCost)
	if c.balance > -PrepaidTopUpThreshold && !c.isStartMonth(month) {
		c.balance -= PrepaidTopUp
		bill.AddFixedCost(PrepaidTopUp + c.balance)
		return
	}
	bill.AddFixedCost(c.balance)
}

// BillCall charges the call and draws it from the balance.
func (c *PrepaidContract) BillCall(call models.Call) {
	if c.bill == nil {
		return
	}
	minutes := call.BilledMinutes()
	c.bill.AddBilledMinutes(minutes)
	c.balance += float64(minutes) * PrepaidMinuteCost
}

// Cancel forfeits remaining credit; a positive balance is still owed.
func (c *PrepaidContract) Cancel() (float64, error) {
	owed, err := c.cancel()
	if err != nil {
		return 0, err
	}
	if c.balance < 0 {
		return 0, nil
	}
	return owed, nil
}

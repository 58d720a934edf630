package billing

import "github.com/j-veylop/callmap/internal/models"

// PhoneLine is a customer's phone number with its contract, bills and history.
type PhoneLine struct {
	contract Contract
	history  *CallHistory
	bills    map[models.MonthKey]*Bill
	number   string
}

// NewPhoneLine creates a line governed by contract.
func NewPhoneLine(number string, contract Contract) *PhoneLine {
	return &PhoneLine{
		number:   number,
		contract: contract,
		history:  NewCallHistory(),
		bills:    make(map[models.MonthKey]*Bill),
	}
}

// Number returns the phone number.
func (l *PhoneLine) Number() string { return l.number }

// Contract returns the line's contract.
func (l *PhoneLine) Contract() Contract { return l.contract }

// ContractType returns the contract name.
func (l *PhoneLine) ContractType() string { return l.contract.Type() }

// History returns the line's call history.
func (l *PhoneLine) History() *CallHistory { return l.history }

// NewMonth opens the bill for month. Reopening an existing month is a no-op.
func (l *PhoneLine) NewMonth(month models.MonthKey) {
	if _, ok := l.bills[month]; ok {
		return
	}
	bill := NewBill()
	l.bills[month] = bill
	l.contract.NewMonth(month, bill)
}

// MakeCall records an outgoing call and charges it.
func (l *PhoneLine) MakeCall(call models.Call) {
	l.NewMonth(call.Month())
	l.history.RegisterOutgoing(call)
	l.contract.BillCall(call)
}

// ReceiveCall records an incoming call. Incoming calls are free.
func (l *PhoneLine) ReceiveCall(call models.Call) {
	l.history.RegisterIncoming(call)
}

// Cancel closes the line's contract and returns the amount owed.
func (l *PhoneLine) Cancel() (float64, error) {
	return l.contract.Cancel()
}

// Bill returns the bill summary for month, if one exists.
func (l *PhoneLine) Bill(month models.MonthKey) (models.BillSummary, bool) {
	bill, ok := l.bills[month]
	if !ok {
		return models.BillSummary{}, false
	}
	return bill.Summary(), true
}

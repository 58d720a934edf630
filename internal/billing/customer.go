package billing

import (
	"errors"
	"fmt"

	"github.com/j-veylop/callmap/internal/models"
)

// ErrUnknownLine is returned when a number does not belong to a customer.
var ErrUnknownLine = errors.New("phone line not found")

// Customer owns one or more phone lines.
type Customer struct {
	lines []*PhoneLine
	id    int
}

// NewCustomer creates a customer with no lines.
func NewCustomer(id int) *Customer {
	return &Customer{id: id}
}

// ID returns the customer ID.
func (c *Customer) ID() int { return c.id }

// AddLine attaches a phone line.
func (c *Customer) AddLine(line *PhoneLine) {
	c.lines = append(c.lines, line)
}

// Lines returns the customer's lines.
func (c *Customer) Lines() []*PhoneLine {
	return append([]*PhoneLine(nil), c.lines...)
}

// Line returns the line with number, or nil.
func (c *Customer) Line(number string) *PhoneLine {
	for _, l := range c.lines {
		if l.number == number {
			return l
		}
	}
	return nil
}

// Numbers returns the phone numbers of all lines.
func (c *Customer) Numbers() []string {
	numbers := make([]string, len(c.lines))
	for i, l := range c.lines {
		numbers[i] = l.number
	}
	return numbers
}

// HasNumber reports whether number belongs to the customer.
func (c *Customer) HasNumber(number string) bool {
	return c.Line(number) != nil
}

// NewMonth opens month on every line.
func (c *Customer) NewMonth(month models.MonthKey) {
	for _, l := range c.lines {
		l.NewMonth(month)
	}
}

// MakeCall records an outgoing call on the source line.
func (c *Customer) MakeCall(call models.Call) error {
	line := c.Line(call.Src)
	if line == nil {
		return fmt.Errorf("customer %d: %w: %s", c.id, ErrUnknownLine, call.Src)
	}
	line.MakeCall(call)
	return nil
}

// ReceiveCall records an incoming call on the destination line.
func (c *Customer) ReceiveCall(call models.Call) error {
	line := c.Line(call.Dst)
	if line == nil {
		return fmt.Errorf("customer %d: %w: %s", c.id, ErrUnknownLine, call.Dst)
	}
	line.ReceiveCall(call)
	return nil
}

// CancelLine cancels the contract of the line with number.
func (c *Customer) CancelLine(number string) (float64, error) {
	line := c.Line(number)
	if line == nil {
		return 0, fmt.Errorf("customer %d: %w: %s", c.id, ErrUnknownLine, number)
	}
	return line.Cancel()
}

// History returns all outgoing and incoming calls across the customer's lines.
func (c *Customer) History() (out, in []models.Call) {
	for _, l := range c.lines {
		o, i := l.history.All()
		out = append(out, o...)
		in = append(in, i...)
	}
	return out, in
}

// CallHistory returns the history of number, or of every line when number is
// empty.
func (c *Customer) CallHistory(number string) []*CallHistory {
	var histories []*CallHistory
	for _, l := range c.lines {
		if number == "" || l.number == number {
			histories = append(histories, l.history)
		}
	}
	return histories
}

// GenerateBill sums the bills of all lines for month. Lines without a bill for
// that month are omitted.
func (c *Customer) GenerateBill(month models.MonthKey) models.CustomerBill {
	bill := models.CustomerBill{CustomerID: c.id, Month: month}
	for _, l := range c.lines {
		summary, ok := l.Bill(month)
		if !ok {
			continue
		}
		bill.Total += summary.Total
		bill.Lines = append(bill.Lines, models.LineBill{Number: l.number, Summary: summary})
	}
	return bill
}

package models

import "time"

// EventType identifies the kind of dataset event.
type EventType string

const (
	// EventCall is a voice call event.
	EventCall EventType = "call"
	// EventSMS is a text message event.
	EventSMS EventType = "sms"
)

// Contract type names as they appear in the dataset.
const (
	ContractTerm    = "term"
	ContractMTM     = "mtm"
	ContractPrepaid = "prepaid"
)

// Event is a single communication record from the dataset.
type Event struct {
	Time     time.Time
	Type     EventType
	Src      string
	Dst      string
	SrcLoc   Location
	DstLoc   Location
	Duration int
}

// Call converts a call event into a Call.
func (e Event) Call() Call {
	return Call{
		Time:     e.Time,
		Src:      e.Src,
		Dst:      e.Dst,
		SrcLoc:   e.SrcLoc,
		DstLoc:   e.DstLoc,
		Duration: e.Duration,
	}
}

// LineSpec describes a phone line owned by a customer.
type LineSpec struct {
	Number   string
	Contract string
}

// CustomerSpec describes a customer and their phone lines.
type CustomerSpec struct {
	Lines []LineSpec
	ID    int
}

// Dataset is the parsed content of a dataset file.
type Dataset struct {
	Customers []CustomerSpec
	Events    []Event
	Skipped   int // events of unknown type
}

// CallCount returns the number of call events.
func (d *Dataset) CallCount() int {
	n := 0
	for _, e := range d.Events {
		if e.Type == EventCall {
			n++
		}
	}
	return n
}

// SMSCount returns the number of SMS events.
func (d *Dataset) SMSCount() int {
	n := 0
	for _, e := range d.Events {
		if e.Type == EventSMS {
			n++
		}
	}
	return n
}

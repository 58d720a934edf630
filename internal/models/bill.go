package models

// BillSummary is the itemised state of a single line's monthly bill.
type BillSummary struct {
	Type          string  `json:"type"`
	Fixed         float64 `json:"fixed"`
	MinuteRate    float64 `json:"min_rate"`
	Total         float64 `json:"total"`
	FreeMinutes   int     `json:"free_mins"`
	BilledMinutes int     `json:"billed_mins"`
}

// LineBill pairs a phone number with its bill summary.
type LineBill struct {
	Number  string
	Summary BillSummary
}

// CustomerBill is the monthly bill of a customer across all lines.
type CustomerBill struct {
	Lines      []LineBill
	Month      MonthKey
	Total      float64
	CustomerID int
}

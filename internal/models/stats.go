package models

import "time"

// MonthlyStats aggregates call activity and revenue for one month.
type MonthlyStats struct {
	Month         MonthKey
	Calls         int
	TotalSeconds  int64
	BilledMinutes int64
	Revenue       float64
}

// LoadRecord describes one archived dataset load.
type LoadRecord struct {
	LoadedAt  time.Time
	ID        string
	Path      string
	Customers int
	Calls     int
	SMS       int
	Skipped   int
}

// DatasetStats summarises the in-memory dataset.
type DatasetStats struct {
	FirstCall  time.Time
	LastCall   time.Time
	Customers  int
	Lines      int
	Calls      int
	SMS        int
	Unmatched  int
	TotalSecs  int64
	TotalOwing float64
}

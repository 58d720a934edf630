package config

import "time"

const dateLayout = "2006-01-02"

const (
	defaultDatasetPath   = "dataset.json"
	defaultPrepaidCredit = 100.0
)

// Contract dates applied to every line in the dataset unless overridden.
var (
	defaultContractStart = time.Date(2017, time.December, 25, 0, 0, 0, 0, time.UTC)
	defaultTermEnd       = time.Date(2019, time.June, 25, 0, 0, 0, 0, time.UTC)
)

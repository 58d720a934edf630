package db

const schemaVersion = 1

// timeLayout is how timestamps are stored so SQLite date functions understand them.
const timeLayout = "2006-01-02 15:04:05"

// SQL query fragments used across multiple functions
const (
	// sqlLatestLoad selects the id of the most recent load of a dataset path
	sqlLatestLoad = "SELECT id FROM loads WHERE path = ? ORDER BY loaded_at DESC, rowid DESC LIMIT 1"
)

package db

import (
	"context"
	"fmt"
)

// migrate brings the schema up to schemaVersion, tracked in PRAGMA user_version.
// Version 0 is an empty file or one written by an earlier layout, which is
// dropped since the archive can always be rebuilt from the dataset.
func (db *DB) migrate() error {
	var version int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version == schemaVersion {
		return nil
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	for _, table := range []string{"bills", "calls", "loads"} {
		if _, err := db.ExecContext(context.Background(), "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
	}

	if err := db.createLoadsTable(); err != nil {
		return err
	}
	if err := db.createCallsTable(); err != nil {
		return err
	}
	if err := db.createBillsTable(); err != nil {
		return err
	}

	_, err := db.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version=%d", schemaVersion))
	return err
}

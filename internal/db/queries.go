package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/j-veylop/callmap/internal/logger"
	"github.com/j-veylop/callmap/internal/models"
)

// RecordLoad archives one dataset load with its calls and monthly bills in a
// single transaction. Calls and bills archived by earlier loads of the same
// path are replaced; the earlier load rows are kept as history.
// An empty load.ID is filled with a new UUID, a zero LoadedAt with now.
func (db *DB) RecordLoad(load *models.LoadRecord, calls []models.Call, bills []models.CustomerBill) (err error) {
	if load.ID == "" {
		load.ID = uuid.NewString()
	}
	if load.LoadedAt.IsZero() {
		load.LoadedAt = time.Now()
	}

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, query := range []string{
		"DELETE FROM calls WHERE load_id IN (SELECT id FROM loads WHERE path = ?)",
		"DELETE FROM bills WHERE load_id IN (SELECT id FROM loads WHERE path = ?)",
	} {
		if _, err = tx.ExecContext(ctx, query, load.Path); err != nil {
			return fmt.Errorf("failed to clear previous load: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loads (id, path, loaded_at, customers, calls, sms, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		load.ID,
		load.Path,
		load.LoadedAt.UTC().Format(timeLayout),
		load.Customers,
		load.Calls,
		load.SMS,
		load.Skipped,
	)
	if err != nil {
		return fmt.Errorf("failed to insert load: %w", err)
	}

	if err = insertCalls(ctx, tx, load.ID, calls); err != nil {
		return err
	}
	if err = insertBills(ctx, tx, load.ID, bills); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}

	logger.Debug("archived load", "id", load.ID, "calls", len(calls), "bills", len(bills))
	return nil
}

func insertCalls(ctx context.Context, tx *sql.Tx, loadID string, calls []models.Call) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calls (load_id, month, timestamp, src, dst, duration, billed_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare call insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range calls {
		_, err := stmt.ExecContext(ctx,
			loadID,
			c.Month().String(),
			c.Time.Format(timeLayout),
			c.Src,
			c.Dst,
			c.Duration,
			c.BilledMinutes(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert call: %w", err)
		}
	}
	return nil
}

func insertBills(ctx context.Context, tx *sql.Tx, loadID string, bills []models.CustomerBill) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bills (
			load_id, customer_id, month, number, contract, fixed,
			minute_rate, free_minutes, billed_minutes, total
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare bill insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, bill := range bills {
		for _, line := range bill.Lines {
			s := line.Summary
			_, err := stmt.ExecContext(ctx,
				loadID,
				bill.CustomerID,
				bill.Month.String(),
				line.Number,
				s.Type,
				s.Fixed,
				s.MinuteRate,
				s.FreeMinutes,
				s.BilledMinutes,
				s.Total,
			)
			if err != nil {
				return fmt.Errorf("failed to insert bill: %w", err)
			}
		}
	}
	return nil
}

// latestLoadID returns the id of the most recent load of path, or "" if none
// exists.
func (db *DB) latestLoadID(path string) (string, error) {
	var id string
	err := db.QueryRowContext(context.Background(), sqlLatestLoad, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find latest load: %w", err)
	}
	return id, nil
}

// MonthlyStats returns per-month call volume and revenue of the latest load of
// the dataset at path, oldest month first.
func (db *DB) MonthlyStats(path string) ([]models.MonthlyStats, error) {
	loadID, err := db.latestLoadID(path)
	if err != nil || loadID == "" {
		return nil, err
	}

	query := `
		SELECT
			m.month,
			COALESCE(c.calls, 0),
			COALESCE(c.seconds, 0),
			COALESCE(c.minutes, 0),
			COALESCE(b.revenue, 0)
		FROM (
			SELECT month FROM calls WHERE load_id = ?
			UNION
			SELECT month FROM bills WHERE load_id = ?
		) m
		LEFT JOIN (
			SELECT month, COUNT(*) AS calls, SUM(duration) AS seconds, SUM(billed_minutes) AS minutes
			FROM calls WHERE load_id = ? GROUP BY month
		) c ON c.month = m.month
		LEFT JOIN (
			SELECT month, SUM(total) AS revenue
			FROM bills WHERE load_id = ? GROUP BY month
		) b ON b.month = m.month
		ORDER BY m.month
	`

	rows, err := db.QueryContext(context.Background(), query, loadID, loadID, loadID, loadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var stats []models.MonthlyStats
	for rows.Next() {
		var s models.MonthlyStats
		var month string
		if err := rows.Scan(&month, &s.Calls, &s.TotalSeconds, &s.BilledMinutes, &s.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		if s.Month, err = models.ParseMonthKey(month); err != nil {
			return nil, fmt.Errorf("invalid month %q in archive: %w", month, err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// CustomerBills returns the archived monthly bills of a customer from the
// latest load of the dataset at path, oldest month first. Lines keep the order
// they were recorded in.
func (db *DB) CustomerBills(path string, customerID int) ([]models.CustomerBill, error) {
	loadID, err := db.latestLoadID(path)
	if err != nil || loadID == "" {
		return nil, err
	}

	query := `
		SELECT month, number, contract, fixed, minute_rate, free_minutes, billed_minutes, total
		FROM bills
		WHERE load_id = ? AND customer_id = ?
		ORDER BY month, id
	`

	rows, err := db.QueryContext(context.Background(), query, loadID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer bills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bills []models.CustomerBill
	for rows.Next() {
		var month string
		var line models.LineBill
		s := &line.Summary
		err := rows.Scan(&month, &line.Number, &s.Type, &s.Fixed, &s.MinuteRate,
			&s.FreeMinutes, &s.BilledMinutes, &s.Total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}

		key, err := models.ParseMonthKey(month)
		if err != nil {
			return nil, fmt.Errorf("invalid month %q in archive: %w", month, err)
		}

		if n := len(bills); n == 0 || bills[n-1].Month != key {
			bills = append(bills, models.CustomerBill{CustomerID: customerID, Month: key})
		}
		current := &bills[len(bills)-1]
		current.Lines = append(current.Lines, line)
		current.Total += s.Total
	}

	return bills, rows.Err()
}

// RecentLoads returns up to limit archived loads, newest first.
func (db *DB) RecentLoads(limit int) ([]models.LoadRecord, error) {
	query := `
		SELECT id, path, loaded_at, customers, calls, sms, skipped
		FROM loads
		ORDER BY loaded_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent loads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loads []models.LoadRecord
	for rows.Next() {
		var rec models.LoadRecord
		var loadedAt string
		if err := rows.Scan(&rec.ID, &rec.Path, &loadedAt, &rec.Customers, &rec.Calls, &rec.SMS, &rec.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}
		if rec.LoadedAt, err = time.Parse(timeLayout, loadedAt); err != nil {
			return nil, fmt.Errorf("invalid load time %q: %w", loadedAt, err)
		}
		loads = append(loads, rec)
	}

	return loads, rows.Err()
}

// PruneLoads deletes all but the keep most recent loads together with their
// calls and bills. It returns the number of loads removed.
func (db *DB) PruneLoads(keep int) (removed int64, err error) {
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Explicit deletes: foreign_keys is a per-connection pragma
	const stale = "SELECT id FROM loads WHERE id NOT IN (SELECT id FROM loads ORDER BY loaded_at DESC, rowid DESC LIMIT ?)"
	for _, table := range []string{"calls", "bills"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE load_id IN ("+stale+")", keep); err != nil {
			return 0, fmt.Errorf("failed to prune %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM loads WHERE id IN ("+stale+")", keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune loads: %w", err)
	}
	if removed, err = result.RowsAffected(); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return removed, nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hollybank-care/rostergen/pkg/db"
)

// GetHistoryShifts retrieves worked shifts with dates in [from, to],
// both ISO dates inclusive.
func (d *DB) GetHistoryShifts(ctx context.Context, from, to string) ([]db.HistoryShift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT employee_id, shift_date, shift
		FROM history_shift
		WHERE shift_date >= $1 AND shift_date <= $2
		ORDER BY employee_id, shift_date
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query history shifts: %w", err)
	}
	defer rows.Close()

	var shifts []db.HistoryShift
	for rows.Next() {
		var s db.HistoryShift
		var date time.Time
		if err := rows.Scan(&s.EmployeeID, &date, &s.Shift); err != nil {
			return nil, fmt.Errorf("failed to scan history shift: %w", err)
		}
		s.Date = date.Format("2006-01-02")
		shifts = append(shifts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history shifts: %w", err)
	}

	return shifts, nil
}

// ReplaceHistoryShifts upserts worked-history rows. Existing rows for the
// same (employee, date) are overwritten, so re-imports are safe.
func (d *DB) ReplaceHistoryShifts(ctx context.Context, shifts []db.HistoryShift) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range shifts {
		_, err := tx.Exec(ctx, `
			INSERT INTO history_shift (employee_id, shift_date, shift)
			VALUES ($1, $2, $3)
			ON CONFLICT (employee_id, shift_date) DO UPDATE SET shift = EXCLUDED.shift
		`, s.EmployeeID, s.Date, s.Shift)
		if err != nil {
			return fmt.Errorf("failed to upsert history shift for %s on %s: %w", s.EmployeeID, s.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit history shifts: %w", err)
	}

	return nil
}

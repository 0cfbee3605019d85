package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hollybank-care/rostergen/pkg/db"
)

// InsertRosterRun records a solved run.
func (d *DB) InsertRosterRun(ctx context.Context, run *db.RosterRun) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO roster_run (id, period_start, period_end, status, objective)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.PeriodStart, run.PeriodEnd, run.Status, run.Objective)
	if err != nil {
		return fmt.Errorf("failed to insert roster run: %w", err)
	}
	return nil
}

// InsertRosterAssignments records the cells of a solved run in one
// transaction.
func (d *DB) InsertRosterAssignments(ctx context.Context, assignments []db.RosterAssignment) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, a := range assignments {
		_, err := tx.Exec(ctx, `
			INSERT INTO roster_assignment (run_id, employee_id, shift_date, shift)
			VALUES ($1, $2, $3, $4)
		`, a.RunID, a.EmployeeID, a.Date, a.Shift)
		if err != nil {
			return fmt.Errorf("failed to insert assignment for %s on %s: %w", a.EmployeeID, a.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}

	return nil
}

// GetRosterRuns retrieves all roster runs, newest first.
func (d *DB) GetRosterRuns(ctx context.Context) ([]db.RosterRun, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, period_start, period_end, status, objective, created_at
		FROM roster_run
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster runs: %w", err)
	}
	defer rows.Close()

	var runs []db.RosterRun
	for rows.Next() {
		var r db.RosterRun
		var start, end time.Time
		if err := rows.Scan(&r.ID, &start, &end, &r.Status, &r.Objective, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roster run: %w", err)
		}
		r.PeriodStart = start.Format("2006-01-02")
		r.PeriodEnd = end.Format("2006-01-02")
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roster runs: %w", err)
	}

	return runs, nil
}

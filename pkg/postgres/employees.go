package postgres

import (
	"context"
	"fmt"

	"github.com/hollybank-care/rostergen/pkg/db"
)

// GetEmployees retrieves all employee records ordered by id.
func (d *DB) GetEmployees(ctx context.Context) ([]db.EmployeeRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, employment_type, role, unit, status
		FROM employee
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var records []db.EmployeeRecord
	for rows.Next() {
		var r db.EmployeeRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.EmploymentType, &r.Role, &r.Unit, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employees: %w", err)
	}

	return records, nil
}

// ReplaceEmployees swaps the employee table for the given record set in
// one transaction.
func (d *DB) ReplaceEmployees(ctx context.Context, records []db.EmployeeRecord) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM employee`); err != nil {
		return fmt.Errorf("failed to clear employees: %w", err)
	}

	for _, r := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO employee (id, name, employment_type, role, unit, status)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.ID, r.Name, r.EmploymentType, r.Role, r.Unit, r.Status)
		if err != nil {
			return fmt.Errorf("failed to insert employee %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit employees: %w", err)
	}

	return nil
}

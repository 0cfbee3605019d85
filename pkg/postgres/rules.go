package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hollybank-care/rostergen/pkg/db"
)

// GetRuleRecords retrieves all rule records ordered by creation time.
func (d *DB) GetRuleRecords(ctx context.Context) ([]db.RuleRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, source_text, payload, created_at
		FROM rule_record
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule records: %w", err)
	}
	defer rows.Close()

	var records []db.RuleRecord
	for rows.Next() {
		var r db.RuleRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.SourceText, &payload, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule record: %w", err)
		}
		if err := json.Unmarshal(payload, &r.Payload); err != nil {
			return nil, fmt.Errorf("failed to parse rule payload %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule records: %w", err)
	}

	return records, nil
}

// InsertRuleRecords inserts rule records in one transaction.
func (d *DB) InsertRuleRecords(ctx context.Context, records []db.RuleRecord) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range records {
		payload, err := json.Marshal(r.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal rule payload %s: %w", r.ID, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO rule_record (id, source_text, payload)
			VALUES ($1, $2, $3)
		`, r.ID, r.SourceText, payload)
		if err != nil {
			return fmt.Errorf("failed to insert rule record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rule records: %w", err)
	}

	return nil
}

// DeleteRuleRecords removes all rule records.
func (d *DB) DeleteRuleRecords(ctx context.Context) error {
	if _, err := d.pool.Exec(ctx, `DELETE FROM rule_record`); err != nil {
		return fmt.Errorf("failed to delete rule records: %w", err)
	}
	return nil
}

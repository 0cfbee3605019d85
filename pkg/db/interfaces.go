package db

import "context"

// EmployeeStore defines the interface for employee database operations
type EmployeeStore interface {
	GetEmployees(ctx context.Context) ([]EmployeeRecord, error)
	ReplaceEmployees(ctx context.Context, records []EmployeeRecord) error
}

// RuleStore defines the interface for rule record database operations
type RuleStore interface {
	GetRuleRecords(ctx context.Context) ([]RuleRecord, error)
	InsertRuleRecords(ctx context.Context, records []RuleRecord) error
	DeleteRuleRecords(ctx context.Context) error
}

// HistoryStore defines the interface for worked-history database operations
type HistoryStore interface {
	GetHistoryShifts(ctx context.Context, from, to string) ([]HistoryShift, error)
	ReplaceHistoryShifts(ctx context.Context, shifts []HistoryShift) error
}

// RosterStore defines the interface for roster run database operations
type RosterStore interface {
	InsertRosterRun(ctx context.Context, run *RosterRun) error
	InsertRosterAssignments(ctx context.Context, assignments []RosterAssignment) error
	GetRosterRuns(ctx context.Context) ([]RosterRun, error)
}

// Database is the union of the per-entity stores. The postgres.DB
// implementation satisfies it.
type Database interface {
	EmployeeStore
	RuleStore
	HistoryStore
	RosterStore
}

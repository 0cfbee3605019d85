package db

import (
	"sort"
	"time"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

// EmployeeRecord represents a database employee record.
type EmployeeRecord struct {
	ID             string
	Name           string
	EmploymentType string
	Role           string
	Unit           string
	Status         string
}

// ToEmployee converts the record to the in-memory roster entry.
func (r EmployeeRecord) ToEmployee() model.Employee {
	return model.Employee{
		ID:             r.ID,
		Name:           r.Name,
		EmploymentType: model.EmploymentType(r.EmploymentType),
		Role:           r.Role,
		Unit:           r.Unit,
		Status:         model.EmployeeStatus(r.Status),
	}
}

// EmployeesToModel converts a record set to roster entries.
func EmployeesToModel(records []EmployeeRecord) []model.Employee {
	employees := make([]model.Employee, 0, len(records))
	for _, r := range records {
		employees = append(employees, r.ToEmployee())
	}
	return employees
}

// RuleRecord represents a database rule record: the staff member's
// original free-text request plus the structured rule the extraction
// service produced from it.
type RuleRecord struct {
	ID         string
	SourceText string
	Payload    model.RawRule
	CreatedAt  time.Time
}

// RawRules extracts the structured payloads from a record set.
func RawRules(records []RuleRecord) []model.RawRule {
	raws := make([]model.RawRule, 0, len(records))
	for _, r := range records {
		raws = append(raws, r.Payload)
	}
	return raws
}

// HistoryShift represents one worked day in the history window.
type HistoryShift struct {
	EmployeeID string
	Date       string // ISO date
	Shift      string
}

// HistoryToModel folds history rows into the per-employee window keyed by
// employee, ordered oldest first.
func HistoryToModel(shifts []HistoryShift) model.History {
	byEmployee := make(map[string][]HistoryShift)
	for _, s := range shifts {
		byEmployee[s.EmployeeID] = append(byEmployee[s.EmployeeID], s)
	}

	history := make(model.History, len(byEmployee))
	for id, rows := range byEmployee {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
		codes := make([]model.ShiftCode, 0, len(rows))
		for _, row := range rows {
			if code, ok := model.ParseShiftCode(row.Shift); ok {
				codes = append(codes, code)
			}
		}
		history[id] = codes
	}
	return history
}

// RosterRun represents a database roster run record.
type RosterRun struct {
	ID          string
	PeriodStart string // ISO date
	PeriodEnd   string // ISO date
	Status      string
	Objective   int64
	CreatedAt   time.Time
}

// RosterAssignment represents one (employee, day) cell of a solved run.
type RosterAssignment struct {
	RunID      string
	EmployeeID string
	Date       string // ISO date
	Shift      string
}

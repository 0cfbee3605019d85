package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/clients/extractclient"
	"github.com/hollybank-care/rostergen/pkg/clients/sheetsclient"
	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/core/solver"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// mockDatabase implements a test double for db.Database
type mockDatabase struct {
	employees    []db.EmployeeRecord
	ruleRecords  []db.RuleRecord
	historyRows  []db.HistoryShift
	rosterRuns   []db.RosterRun

	replacedEmployees   []db.EmployeeRecord
	replacedHistory     []db.HistoryShift
	insertedRuleRecords []db.RuleRecord
	deletedRules        bool
	insertedRuns        []*db.RosterRun
	insertedAssignments []db.RosterAssignment

	getEmployeesErr error
	getRulesErr     error
	insertRunErr    error
}

func (m *mockDatabase) GetEmployees(ctx context.Context) ([]db.EmployeeRecord, error) {
	if m.getEmployeesErr != nil {
		return nil, m.getEmployeesErr
	}
	return m.employees, nil
}

func (m *mockDatabase) ReplaceEmployees(ctx context.Context, records []db.EmployeeRecord) error {
	m.replacedEmployees = records
	return nil
}

func (m *mockDatabase) GetRuleRecords(ctx context.Context) ([]db.RuleRecord, error) {
	if m.getRulesErr != nil {
		return nil, m.getRulesErr
	}
	return m.ruleRecords, nil
}

func (m *mockDatabase) InsertRuleRecords(ctx context.Context, records []db.RuleRecord) error {
	m.insertedRuleRecords = append(m.insertedRuleRecords, records...)
	return nil
}

func (m *mockDatabase) DeleteRuleRecords(ctx context.Context) error {
	m.deletedRules = true
	return nil
}

func (m *mockDatabase) GetHistoryShifts(ctx context.Context, from, to string) ([]db.HistoryShift, error) {
	var out []db.HistoryShift
	for _, s := range m.historyRows {
		if s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockDatabase) ReplaceHistoryShifts(ctx context.Context, shifts []db.HistoryShift) error {
	m.replacedHistory = shifts
	return nil
}

func (m *mockDatabase) InsertRosterRun(ctx context.Context, run *db.RosterRun) error {
	if m.insertRunErr != nil {
		return m.insertRunErr
	}
	m.insertedRuns = append(m.insertedRuns, run)
	return nil
}

func (m *mockDatabase) InsertRosterAssignments(ctx context.Context, assignments []db.RosterAssignment) error {
	m.insertedAssignments = append(m.insertedAssignments, assignments...)
	return nil
}

func (m *mockDatabase) GetRosterRuns(ctx context.Context) ([]db.RosterRun, error) {
	return m.rosterRuns, nil
}

// mockSheets implements a test double for SheetSource
type mockSheets struct {
	employees []db.EmployeeRecord
	requests  []sheetsclient.StaffRequest
	history   []db.HistoryShift

	employeesErr error
}

func (m *mockSheets) ListEmployees(cfg *config.Config) ([]db.EmployeeRecord, error) {
	if m.employeesErr != nil {
		return nil, m.employeesErr
	}
	return m.employees, nil
}

func (m *mockSheets) ListRequests(cfg *config.Config) ([]sheetsclient.StaffRequest, error) {
	return m.requests, nil
}

func (m *mockSheets) ListHistoryShifts(cfg *config.Config) ([]db.HistoryShift, error) {
	return m.history, nil
}

// mockExtractor implements a test double for RuleExtractor
type mockExtractor struct {
	rulesByText map[string][]model.RawRule
	err         error
}

func (m *mockExtractor) Extract(ctx context.Context, requests []extractclient.Request) ([]model.RawRule, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.RawRule
	for _, r := range requests {
		out = append(out, m.rulesByText[r.Text]...)
	}
	return out, nil
}

// mockPublisher implements a test double for RosterPublisher
type mockPublisher struct {
	grids [][][]string
}

func (m *mockPublisher) PublishRoster(cfg *config.Config, grid [][]string) error {
	m.grids = append(m.grids, grid)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		PeriodStart: "2025-04-10",
		Weeks:       1,
		Sheets: config.SheetsConfig{
			SourceSheetID: "source",
			EmployeesTab:  "Employees",
			RulesTab:      "Rules",
			HistoryTab:    "History",
			RosterSheetID: "roster",
		},
		ExtractionURL: "https://extract.example.com/v1/rules",
	}
}

func testEmployeeRecords() []db.EmployeeRecord {
	return []db.EmployeeRecord{
		{ID: "e1", Name: "Aiko Tanaka", EmploymentType: "full_time", Role: "nurse", Unit: "1F", Status: "active"},
		{ID: "e2", Name: "Noor Haddad", EmploymentType: "part_time", Unit: "1F", Status: "active"},
	}
}

func TestImportData(t *testing.T) {
	database := &mockDatabase{}
	sheets := &mockSheets{
		employees: testEmployeeRecords(),
		history: []db.HistoryShift{
			{EmployeeID: "e1", Date: "2025-04-09", Shift: "day"},
		},
	}

	result, err := ImportData(context.Background(), database, sheets, testConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Employees)
	assert.Equal(t, 1, result.HistoryShifts)
	assert.Equal(t, sheets.employees, database.replacedEmployees)
	assert.Equal(t, sheets.history, database.replacedHistory)
}

func TestImportData_NoEmployees(t *testing.T) {
	database := &mockDatabase{}
	sheets := &mockSheets{}

	_, err := ImportData(context.Background(), database, sheets, testConfig(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestImportData_SheetError(t *testing.T) {
	database := &mockDatabase{}
	sheets := &mockSheets{employeesErr: errors.New("api quota exceeded")}

	_, err := ImportData(context.Background(), database, sheets, testConfig(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list employees")
}

func TestExtractRules(t *testing.T) {
	database := &mockDatabase{
		ruleRecords: []db.RuleRecord{{ID: "stale"}},
	}
	sheets := &mockSheets{
		requests: []sheetsclient.StaffRequest{
			{Employee: "e1", Text: "No nights please"},
			{Text: "gibberish"},
		},
	}
	extractor := &mockExtractor{
		rulesByText: map[string][]model.RawRule{
			"No nights please": {
				{RuleType: "FORBID_SHIFT", Employee: "e1", Shift: "night"},
			},
			"gibberish": {
				{RuleType: "UNPARSABLE", Reason: "could not interpret"},
			},
		},
	}

	result, err := ExtractRules(context.Background(), database, sheets, extractor, testConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Requests)
	assert.Equal(t, 2, result.Rules)
	assert.Equal(t, 1, result.Unparsable)

	assert.True(t, database.deletedRules)
	require.Len(t, database.insertedRuleRecords, 2)
	assert.Equal(t, "No nights please", database.insertedRuleRecords[0].SourceText)
	assert.Equal(t, "FORBID_SHIFT", database.insertedRuleRecords[0].Payload.RuleType)
	assert.NotEmpty(t, database.insertedRuleRecords[0].ID)
}

func TestValidateRules(t *testing.T) {
	database := &mockDatabase{
		ruleRecords: []db.RuleRecord{
			{ID: "r1", Payload: model.RawRule{RuleType: "FORBID_SHIFT", Employee: "e1", Shift: "night"}},
			{ID: "r2", Payload: model.RawRule{RuleType: "FORBID_SHIFT", Employee: "e1", Shift: "brunch"}},
			{ID: "r3", Payload: model.RawRule{RuleType: "UNPARSABLE", Reason: "could not interpret"}},
		},
	}

	report, err := ValidateRules(context.Background(), database, testConfig(), zap.NewNop())
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 3)
	valid, invalid, unparsable := report.Counts()
	assert.Equal(t, 1, valid)
	assert.Equal(t, 1, invalid)
	assert.Equal(t, 1, unparsable)
}

func TestGenerateRoster(t *testing.T) {
	database := &mockDatabase{
		employees: testEmployeeRecords(),
		ruleRecords: []db.RuleRecord{
			{ID: "r1", Payload: model.RawRule{
				RuleType: "SPECIFY_DATE_SHIFT",
				Employee: "e1",
				Date:     "2025-04-11",
				Shift:    "day",
			}},
		},
		historyRows: []db.HistoryShift{
			{EmployeeID: "e1", Date: "2025-04-09", Shift: "day"},
			{EmployeeID: "e1", Date: "2025-04-01", Shift: "night"}, // outside window
		},
	}
	publisher := &mockPublisher{}

	result, err := GenerateRoster(context.Background(), database, testConfig(), zap.NewNop(), GenerateOptions{
		Publisher: publisher,
	})
	require.NoError(t, err)

	assert.True(t, result.Solver.Status.HasSolution())
	require.NotNil(t, result.Run)
	assert.Equal(t, "2025-04-10", result.Run.PeriodStart)
	assert.Equal(t, "2025-04-16", result.Run.PeriodEnd)

	// The pinned shift survives into the schedule.
	var e1Row int
	for i, row := range result.Schedule.Rows {
		if row.Employee.ID == "e1" {
			e1Row = i
		}
	}
	assert.Equal(t, model.ShiftDay, result.Schedule.Rows[e1Row].Shifts[1])

	// Run and all cells persisted, grid published.
	require.Len(t, database.insertedRuns, 1)
	assert.Len(t, database.insertedAssignments, 2*7)
	require.Len(t, publisher.grids, 1)
	assert.Equal(t, "employee", publisher.grids[0][0][0])

	// Only the in-window history day is carried.
	assert.Equal(t, []model.ShiftCode{model.ShiftDay}, result.Schedule.Rows[e1Row].History)
}

func TestGenerateRoster_DryRun(t *testing.T) {
	database := &mockDatabase{
		employees: testEmployeeRecords(),
	}

	result, err := GenerateRoster(context.Background(), database, testConfig(), zap.NewNop(), GenerateOptions{
		DryRun: true,
	})
	require.NoError(t, err)

	assert.True(t, result.Solver.Status.HasSolution())
	assert.Empty(t, database.insertedRuns)
	assert.Empty(t, database.insertedAssignments)
}

func TestGenerateRoster_NoEmployees(t *testing.T) {
	database := &mockDatabase{}

	_, err := GenerateRoster(context.Background(), database, testConfig(), zap.NewNop(), GenerateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no employees")
}

func TestGenerateRoster_InfeasibleRules(t *testing.T) {
	database := &mockDatabase{
		employees: testEmployeeRecords(),
		ruleRecords: []db.RuleRecord{
			{ID: "r1", Payload: model.RawRule{
				RuleType: "SPECIFY_DATE_SHIFT",
				Employee: "e1",
				Date:     "2025-04-11",
				Shift:    "day",
			}},
			{ID: "r2", Payload: model.RawRule{
				RuleType: "SPECIFY_DATE_SHIFT",
				Employee: "e1",
				Date:     "2025-04-11",
				Shift:    "night",
			}},
		},
	}

	result, err := GenerateRoster(context.Background(), database, testConfig(), zap.NewNop(), GenerateOptions{})
	require.NoError(t, err)

	// The status comes back so the caller can relax rules and retry;
	// nothing is scheduled or persisted.
	assert.Equal(t, solver.StatusInfeasible, result.Solver.Status)
	assert.Nil(t, result.Run)
	assert.Nil(t, result.Schedule)
	assert.Empty(t, database.insertedRuns)
	assert.Empty(t, database.insertedAssignments)
}

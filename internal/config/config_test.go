package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

func validConfig() *Config {
	return &Config{
		PeriodStart: "2025-04-10",
		Weeks:       4,
		Sheets: SheetsConfig{
			SourceSheetID: "sheet123",
			EmployeesTab:  "Employees",
			RulesTab:      "Rules",
			HistoryTab:    "History",
			RosterSheetID: "roster456",
		},
		ExtractionURL: "https://extract.example.com/v1/rules",
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Holidays = []string{"2025-04-29", "2025-05-05"}
	cfg.HolidayRules = []string{"FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=3"}
	cfg.Defaults = DefaultsConfig{
		MaxConsecutiveWork:        4,
		ManagerMaxConsecutiveWork: 5,
		ManagerRoles:              []string{"manager"},
	}
	cfg.Weights = map[string]int64{"staffing_shortage": 200}

	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MinimalConfig(t *testing.T) {
	err := Validate(validConfig())
	assert.NoError(t, err)
}

func TestValidate_MissingRequiredField(t *testing.T) {
	cfg := validConfig()
	cfg.Sheets.RosterSheetID = ""

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_BadPeriodStart(t *testing.T) {
	cfg := validConfig()
	cfg.PeriodStart = "10/04/2025"

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InvalidRRule(t *testing.T) {
	cfg := validConfig()
	cfg.HolidayRules = []string{"INVALID_RRULE_SYNTAX"}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rrule")
}

func TestValidate_InvalidHolidayDate(t *testing.T) {
	cfg := validConfig()
	cfg.Holidays = []string{"29/04/2025"}

	err := Validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestPeriod(t *testing.T) {
	cfg := validConfig()

	period, err := cfg.Period()
	require.NoError(t, err)

	assert.Equal(t, model.Date(2025, 4, 10), period.Start)
	assert.Equal(t, model.Date(2025, 5, 7), period.End)
	assert.Equal(t, 28, period.NumDays())
}

func TestHolidayDates_ExplicitDates(t *testing.T) {
	cfg := validConfig()
	cfg.Holidays = []string{"2025-04-29", "2025-06-01"}

	period, err := cfg.Period()
	require.NoError(t, err)

	dates, err := cfg.HolidayDates(period)
	require.NoError(t, err)

	// The June date falls outside the period and is dropped.
	assert.Equal(t, []time.Time{model.Date(2025, 4, 29)}, dates)
}

func TestHolidayDates_RecurringRule(t *testing.T) {
	cfg := validConfig()
	cfg.HolidayRules = []string{"FREQ=WEEKLY;BYDAY=MO"}

	period, err := cfg.Period()
	require.NoError(t, err)

	dates, err := cfg.HolidayDates(period)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{
		model.Date(2025, 4, 14),
		model.Date(2025, 4, 21),
		model.Date(2025, 4, 28),
		model.Date(2025, 5, 5),
	}, dates)
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	contents := `
periodStart: "2025-04-10"
weeks: 4
holidays:
  - "2025-04-29"
holidayRules:
  - "FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=5"
sheets:
  sourceSheetID: "sheet123"
  employeesTab: "Employees"
  rulesTab: "Rules"
  historyTab: "History"
  rosterSheetID: "roster456"
extractionURL: "https://extract.example.com/v1/rules"
defaults:
  maxConsecutiveWork: 4
  managerMaxConsecutiveWork: 5
  managerRoles:
    - "manager"
solver:
  timeLimitSeconds: 120
  maxDecisions: 5000000
weights:
  staffing_shortage: 200
`

	err := os.WriteFile(configPath, []byte(contents), 0644)
	require.NoError(t, err)

	cfg, err := LoadFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "2025-04-10", cfg.PeriodStart)
	assert.Equal(t, 4, cfg.Weeks)
	assert.Equal(t, "sheet123", cfg.Sheets.SourceSheetID)
	assert.Equal(t, "roster456", cfg.Sheets.RosterSheetID)
	assert.Equal(t, 4, cfg.Defaults.MaxConsecutiveWork)
	assert.Equal(t, []string{"manager"}, cfg.Defaults.ManagerRoles)
	assert.Equal(t, 120, cfg.Solver.TimeLimitSeconds)
	assert.Equal(t, int64(5000000), cfg.Solver.MaxDecisions)
	assert.Equal(t, int64(200), cfg.Weights["staffing_shortage"])
}

func TestLoadFromPath_MissingRequiredField(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.yaml")

	contents := `
periodStart: "2025-04-10"
weeks: 4
sheets:
  sourceSheetID: "sheet123"
  employeesTab: "Employees"
  rulesTab: "Rules"
  historyTab: "History"
  rosterSheetID: "roster456"
`

	err := os.WriteFile(configPath, []byte(contents), 0644)
	require.NoError(t, err)

	_, err = LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_yaml.yaml")

	contents := `
periodStart: "2025-04-10"
  invalid indentation
weeks: 4
`

	err := os.WriteFile(configPath, []byte(contents), 0644)
	require.NoError(t, err)

	_, err = LoadFromPath(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadFromPath_FileNotFound(t *testing.T) {
	_, err := LoadFromPath("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

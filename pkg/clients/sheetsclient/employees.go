package sheetsclient

import (
	"fmt"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// Expected column names in the employees tab
var employeeFields = []string{
	"ID",
	"Name",
	"Employment type",
	"Role",
	"Unit",
	"Status",
}

// ListEmployees retrieves and parses the employee roster from the
// configured spreadsheet.
func (c *Client) ListEmployees(cfg *config.Config) ([]db.EmployeeRecord, error) {
	values, err := c.GetValues(cfg.Sheets.SourceSheetID, cfg.Sheets.EmployeesTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("employees tab is empty")
	}

	records, err := parseEmployees(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse employees: %w", err)
	}

	return records, nil
}

// parseEmployees converts raw spreadsheet data into employee records
func parseEmployees(raw [][]interface{}) ([]db.EmployeeRecord, error) {
	indexes, err := fieldIndexes(raw[0], employeeFields)
	if err != nil {
		return nil, err
	}

	records := make([]db.EmployeeRecord, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := cellValue(indexes, "ID", row)
		// Skip empty rows
		if id == "" {
			continue
		}

		status := cellValue(indexes, "Status", row)
		if status == "" {
			status = "active"
		}

		records = append(records, db.EmployeeRecord{
			ID:             id,
			Name:           cellValue(indexes, "Name", row),
			EmploymentType: cellValue(indexes, "Employment type", row),
			Role:           cellValue(indexes, "Role", row),
			Unit:           cellValue(indexes, "Unit", row),
			Status:         status,
		})
	}

	return records, nil
}

package sheetsclient

import (
	"fmt"
	"time"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// Expected column names in the history tab
var historyFields = []string{
	"Employee ID",
	"Date",
	"Shift",
}

// ListHistoryShifts retrieves and parses the worked-shift history from
// the configured spreadsheet.
func (c *Client) ListHistoryShifts(cfg *config.Config) ([]db.HistoryShift, error) {
	values, err := c.GetValues(cfg.Sheets.SourceSheetID, cfg.Sheets.HistoryTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get history data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("history tab is empty")
	}

	shifts, err := parseHistoryShifts(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	return shifts, nil
}

// parseHistoryShifts converts raw spreadsheet data into history rows,
// rejecting malformed dates and unknown shift symbols.
func parseHistoryShifts(raw [][]interface{}) ([]db.HistoryShift, error) {
	indexes, err := fieldIndexes(raw[0], historyFields)
	if err != nil {
		return nil, err
	}

	shifts := make([]db.HistoryShift, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := cellValue(indexes, "Employee ID", row)
		// Skip empty rows
		if id == "" {
			continue
		}

		date := cellValue(indexes, "Date", row)
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q", i+1, date)
		}

		shift := cellValue(indexes, "Shift", row)
		if _, ok := model.ParseShiftCode(shift); !ok {
			return nil, fmt.Errorf("row %d: unknown shift %q", i+1, shift)
		}

		shifts = append(shifts, db.HistoryShift{
			EmployeeID: id,
			Date:       date,
			Shift:      shift,
		})
	}

	return shifts, nil
}

package sheetsclient

import (
	"fmt"

	"github.com/hollybank-care/rostergen/internal/config"
)

// StaffRequest is one free-text scheduling request as written in the
// requests tab, before extraction.
type StaffRequest struct {
	Employee string
	Text     string
}

// Expected column names in the requests tab
var requestFields = []string{
	"Employee",
	"Request",
}

// ListRequests retrieves the free-text scheduling requests from the
// configured spreadsheet.
func (c *Client) ListRequests(cfg *config.Config) ([]StaffRequest, error) {
	values, err := c.GetValues(cfg.Sheets.SourceSheetID, cfg.Sheets.RulesTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get request data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("requests tab is empty")
	}

	requests, err := parseRequests(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse requests: %w", err)
	}

	return requests, nil
}

// parseRequests converts raw spreadsheet data into staff requests
func parseRequests(raw [][]interface{}) ([]StaffRequest, error) {
	indexes, err := fieldIndexes(raw[0], requestFields)
	if err != nil {
		return nil, err
	}

	requests := make([]StaffRequest, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		text := cellValue(indexes, "Request", row)
		// Skip empty rows
		if text == "" {
			continue
		}

		requests = append(requests, StaffRequest{
			Employee: cellValue(indexes, "Employee", row),
			Text:     text,
		})
	}

	return requests, nil
}

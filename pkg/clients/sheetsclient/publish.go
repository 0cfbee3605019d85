package sheetsclient

import (
	"fmt"

	"github.com/hollybank-care/rostergen/internal/config"
)

// rosterTab is the sheet tab the finished roster is written to.
const rosterTab = "Roster"

// PublishRoster clears the roster tab and writes the grid in its place.
func (c *Client) PublishRoster(cfg *config.Config, grid [][]string) error {
	if err := c.ClearValues(cfg.Sheets.RosterSheetID, rosterTab); err != nil {
		return fmt.Errorf("failed to clear roster tab: %w", err)
	}

	values := make([][]interface{}, 0, len(grid))
	for _, row := range grid {
		cells := make([]interface{}, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}

	if err := c.UpdateValues(cfg.Sheets.RosterSheetID, rosterTab+"!A1", values); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}

	return nil
}

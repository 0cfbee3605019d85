package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// ImportResult represents the result of a source data import
type ImportResult struct {
	Employees     int
	HistoryShifts int
}

// ImportData refreshes the employee roster and the worked-shift history
// in the database from the source spreadsheet.
func ImportData(ctx context.Context, database db.Database, sheets SheetSource, cfg *config.Config, logger *zap.Logger) (*ImportResult, error) {
	logger.Info("Importing source data",
		zap.String("sheet_id", cfg.Sheets.SourceSheetID))

	employees, err := sheets.ListEmployees(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	if len(employees) == 0 {
		return nil, fmt.Errorf("employees tab has no data rows")
	}
	logger.Debug("Fetched employees", zap.Int("count", len(employees)))

	shifts, err := sheets.ListHistoryShifts(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to list history shifts: %w", err)
	}
	logger.Debug("Fetched history shifts", zap.Int("count", len(shifts)))

	if err := database.ReplaceEmployees(ctx, employees); err != nil {
		return nil, fmt.Errorf("failed to store employees: %w", err)
	}

	if err := database.ReplaceHistoryShifts(ctx, shifts); err != nil {
		return nil, fmt.Errorf("failed to store history shifts: %w", err)
	}

	logger.Info("Imported source data",
		zap.Int("employees", len(employees)),
		zap.Int("history_shifts", len(shifts)))

	return &ImportResult{
		Employees:     len(employees),
		HistoryShifts: len(shifts),
	}, nil
}

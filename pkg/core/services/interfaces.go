package services

import (
	"context"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/clients/extractclient"
	"github.com/hollybank-care/rostergen/pkg/clients/sheetsclient"
	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// SheetSource reads the hand-maintained source spreadsheet. The sheets
// client implements it.
type SheetSource interface {
	ListEmployees(cfg *config.Config) ([]db.EmployeeRecord, error)
	ListRequests(cfg *config.Config) ([]sheetsclient.StaffRequest, error)
	ListHistoryShifts(cfg *config.Config) ([]db.HistoryShift, error)
}

// RosterPublisher writes a finished roster grid to the roster
// spreadsheet. The sheets client implements it.
type RosterPublisher interface {
	PublishRoster(cfg *config.Config, grid [][]string) error
}

// RuleExtractor turns free-text scheduling requests into structured rule
// records. The extraction service client implements it.
type RuleExtractor interface {
	Extract(ctx context.Context, requests []extractclient.Request) ([]model.RawRule, error)
}

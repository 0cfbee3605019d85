package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/clients/extractclient"
	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// ExtractResult represents the result of a rule extraction run
type ExtractResult struct {
	Requests   int
	Rules      int
	Unparsable int
}

// ExtractRules reads the free-text requests from the source spreadsheet,
// runs each through the extraction service, and replaces the stored rule
// records with the result. Each request is sent separately so every
// stored rule keeps the exact request text it came from.
func ExtractRules(ctx context.Context, database db.RuleStore, sheets SheetSource, extractor RuleExtractor, cfg *config.Config, logger *zap.Logger) (*ExtractResult, error) {
	requests, err := sheets.ListRequests(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("requests tab has no data rows")
	}

	logger.Info("Extracting rules", zap.Int("requests", len(requests)))

	var records []db.RuleRecord
	unparsable := 0
	for _, request := range requests {
		raws, err := extractor.Extract(ctx, []extractclient.Request{{
			Employee: request.Employee,
			Text:     request.Text,
		}})
		if err != nil {
			return nil, fmt.Errorf("failed to extract rules for request %q: %w", request.Text, err)
		}

		for _, raw := range raws {
			if raw.RuleType == string(model.RuleUnparsable) {
				unparsable++
				logger.Warn("Request could not be interpreted",
					zap.String("text", request.Text),
					zap.String("reason", raw.Reason))
			}
			records = append(records, db.RuleRecord{
				ID:         uuid.New().String(),
				SourceText: request.Text,
				Payload:    raw,
			})
		}
	}

	if err := database.DeleteRuleRecords(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear rule records: %w", err)
	}
	if err := database.InsertRuleRecords(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store rule records: %w", err)
	}

	logger.Info("Extracted rules",
		zap.Int("requests", len(requests)),
		zap.Int("rules", len(records)),
		zap.Int("unparsable", unparsable))

	return &ExtractResult{
		Requests:   len(requests),
		Rules:      len(records),
		Unparsable: unparsable,
	}, nil
}

package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/core/rules"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// ValidationReport pairs each stored rule record with its validation
// outcome, preserving store order.
type ValidationReport struct {
	Records  []db.RuleRecord
	Outcomes []rules.Outcome
}

// Counts tallies the report by verdict.
func (r *ValidationReport) Counts() (valid, invalid, unparsable int) {
	for _, outcome := range r.Outcomes {
		switch outcome.Verdict {
		case rules.VerdictValid:
			valid++
		case rules.VerdictInvalid:
			invalid++
		case rules.VerdictUnparsable:
			unparsable++
		}
	}
	return valid, invalid, unparsable
}

// ValidateRules validates every stored rule record against the configured
// scheduling period.
func ValidateRules(ctx context.Context, database db.RuleStore, cfg *config.Config, logger *zap.Logger) (*ValidationReport, error) {
	period, err := cfg.Period()
	if err != nil {
		return nil, err
	}

	records, err := database.GetRuleRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rule records: %w", err)
	}

	logger.Info("Validating rules",
		zap.Int("records", len(records)),
		zap.String("period_start", period.Start.Format("2006-01-02")),
		zap.String("period_end", period.End.Format("2006-01-02")))

	outcomes := rules.ValidateAll(db.RawRules(records), period, logger)

	report := &ValidationReport{
		Records:  records,
		Outcomes: outcomes,
	}
	valid, invalid, unparsable := report.Counts()
	logger.Info("Validation complete",
		zap.Int("valid", valid),
		zap.Int("invalid", invalid),
		zap.Int("unparsable", unparsable))

	return report, nil
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/core/roster"
	"github.com/hollybank-care/rostergen/pkg/core/rules"
	"github.com/hollybank-care/rostergen/pkg/core/schedule"
	"github.com/hollybank-care/rostergen/pkg/core/solver"
	"github.com/hollybank-care/rostergen/pkg/db"
)

// defaultTimeLimit bounds a solve when the config does not.
const defaultTimeLimit = 2 * time.Minute

// GenerateOptions controls a roster generation run.
type GenerateOptions struct {
	// DryRun solves and reports without persisting or publishing.
	DryRun bool
	// Publisher, when set, receives the finished roster grid.
	Publisher RosterPublisher
}

// GenerateResult represents the result of a roster generation run. Run and
// Schedule are nil when the solver found no feasible assignment; Solver
// carries the final status either way.
type GenerateResult struct {
	Run      *db.RosterRun
	Schedule *schedule.Schedule
	Solver   solver.Result
	Report   *ValidationReport
	Skipped  []roster.Skip
}

// GenerateRoster runs the full pipeline: load the stored data, validate
// the rules against the period, compile the constraint model, solve it,
// and persist and publish the resulting schedule.
func GenerateRoster(ctx context.Context, database db.Database, cfg *config.Config, logger *zap.Logger, opts GenerateOptions) (*GenerateResult, error) {
	period, err := cfg.Period()
	if err != nil {
		return nil, err
	}

	holidays, err := cfg.HolidayDates(period)
	if err != nil {
		return nil, err
	}

	calendar, err := model.NewCalendar(period, holidays)
	if err != nil {
		return nil, err
	}

	logger.Info("Generating roster",
		zap.String("period_start", period.Start.Format("2006-01-02")),
		zap.String("period_end", period.End.Format("2006-01-02")),
		zap.Int("days", calendar.NumDays()),
		zap.Bool("dry_run", opts.DryRun))

	employeeRecords, err := database.GetEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch employees: %w", err)
	}
	if len(employeeRecords) == 0 {
		return nil, fmt.Errorf("no employees in the database, run an import first")
	}
	employees := db.EmployeesToModel(employeeRecords)

	history, err := loadHistory(ctx, database, period)
	if err != nil {
		return nil, err
	}

	report, err := ValidateRules(ctx, database, cfg, logger)
	if err != nil {
		return nil, err
	}
	ruleSet := rules.ValidRules(report.Outcomes)

	input := roster.Input{
		Calendar:  calendar,
		Employees: employees,
		History:   history,
		Rules:     ruleSet,
		Defaults: roster.Defaults{
			MaxConsecutiveWork:        cfg.Defaults.MaxConsecutiveWork,
			ManagerMaxConsecutiveWork: cfg.Defaults.ManagerMaxConsecutiveWork,
			ManagerRoles:              cfg.Defaults.ManagerRoles,
		},
		Weights: configWeights(cfg),
	}

	compiled, err := roster.NewCompiler(logger).Compile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to compile model: %w", err)
	}

	result, err := solver.New(logger).Solve(ctx, compiled.Model, solverOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("solve failed: %w", err)
	}
	if !result.Status.HasSolution() {
		// Surface the solver status so the caller can relax rules and
		// retry instead of treating this as a pipeline failure.
		logger.Warn("No schedule satisfies the hard rules",
			zap.String("status", string(result.Status)))
		return &GenerateResult{
			Solver:  result,
			Report:  report,
			Skipped: compiled.Skipped,
		}, nil
	}

	sched := schedule.Assemble(compiled, result.Values, history)

	run := &db.RosterRun{
		ID:          uuid.New().String(),
		PeriodStart: period.Start.Format("2006-01-02"),
		PeriodEnd:   period.End.Format("2006-01-02"),
		Status:      string(result.Status),
		Objective:   result.Objective,
	}

	if opts.DryRun {
		logger.Info("Dry run, skipping persistence and publishing",
			zap.String("status", string(result.Status)),
			zap.Int64("objective", result.Objective))
		return &GenerateResult{
			Run:      run,
			Schedule: sched,
			Solver:   result,
			Report:   report,
			Skipped:  compiled.Skipped,
		}, nil
	}

	if err := database.InsertRosterRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to store roster run: %w", err)
	}
	if err := database.InsertRosterAssignments(ctx, assignments(run.ID, sched)); err != nil {
		return nil, fmt.Errorf("failed to store assignments: %w", err)
	}

	if opts.Publisher != nil {
		if err := opts.Publisher.PublishRoster(cfg, sched.Grid()); err != nil {
			return nil, fmt.Errorf("failed to publish roster: %w", err)
		}
		logger.Info("Published roster", zap.String("sheet_id", cfg.Sheets.RosterSheetID))
	}

	logger.Info("Generated roster",
		zap.String("run_id", run.ID),
		zap.String("status", run.Status),
		zap.Int64("objective", run.Objective))

	return &GenerateResult{
		Run:      run,
		Schedule: sched,
		Solver:   result,
		Report:   report,
		Skipped:  compiled.Skipped,
	}, nil
}

// loadHistory fetches the worked shifts in the history window immediately
// before the period and folds them into per-employee windows.
func loadHistory(ctx context.Context, store db.HistoryStore, period model.Period) (model.History, error) {
	from := period.Start.AddDate(0, 0, -model.HistoryWindowDays).Format("2006-01-02")
	to := period.Start.AddDate(0, 0, -1).Format("2006-01-02")

	shifts, err := store.GetHistoryShifts(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history shifts: %w", err)
	}

	return db.HistoryToModel(shifts), nil
}

// configWeights lifts the config weight overrides onto the penalty
// categories, keeping defaults for anything not named.
func configWeights(cfg *config.Config) roster.Weights {
	weights := roster.DefaultWeights()
	for name, value := range cfg.Weights {
		weights[roster.Category(name)] = value
	}
	return weights
}

func solverOptions(cfg *config.Config) solver.Options {
	opts := solver.Options{
		TimeLimit:    defaultTimeLimit,
		MaxDecisions: cfg.Solver.MaxDecisions,
	}
	if cfg.Solver.TimeLimitSeconds > 0 {
		opts.TimeLimit = time.Duration(cfg.Solver.TimeLimitSeconds) * time.Second
	}
	return opts
}

// assignments flattens a schedule into database rows.
func assignments(runID string, sched *schedule.Schedule) []db.RosterAssignment {
	var rows []db.RosterAssignment
	for _, scheduleRow := range sched.Rows {
		for d, code := range scheduleRow.Shifts {
			rows = append(rows, db.RosterAssignment{
				RunID:      runID,
				EmployeeID: scheduleRow.Employee.ID,
				Date:       sched.Calendar.Days[d].Date.Format("2006-01-02"),
				Shift:      code.String(),
			})
		}
	}
	return rows
}

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/internal/config"
	"github.com/hollybank-care/rostergen/pkg/clients/extractclient"
	"github.com/hollybank-care/rostergen/pkg/clients/sheetsclient"
	"github.com/hollybank-care/rostergen/pkg/core/rules"
	"github.com/hollybank-care/rostergen/pkg/core/services"
	"github.com/hollybank-care/rostergen/pkg/postgres"
	"github.com/hollybank-care/rostergen/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg           *config.Config
	secrets       *config.Secrets
	sheetsClient  *sheetsclient.Client
	extractClient *extractclient.Client
	database      *postgres.DB
	logger        *zap.Logger
	ctx           context.Context
}

var (
	env     string
	verbose bool
	app     *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rostergen",
		Short: "Hollybank roster generator - build duty rosters from staff requests",
		Long:  `A CLI tool that turns free-text staff scheduling requests into a constraint model and solves it into a monthly duty roster.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(importDataCmd())
	rootCmd.AddCommand(extractRulesCmd())
	rootCmd.AddCommand(validateRulesCmd())
	rootCmd.AddCommand(generateRosterCmd())
	rootCmd.AddCommand(listEmployeesCmd())
	rootCmd.AddCommand(listRunsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, clients, and database
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Starting application", zap.String("environment", env))

	app.cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.secrets, err = config.LoadSecrets()
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	oauthCfg, err := config.LoadOAuthClient(env)
	if err != nil {
		return fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	app.logger.Info("Initializing sheets client")
	app.sheetsClient, err = sheetsclient.NewClient(app.ctx, oauthCfg, env)
	if err != nil {
		return fmt.Errorf("failed to create sheets client: %w", err)
	}

	app.extractClient = extractclient.NewClient(app.cfg.ExtractionURL, app.secrets.ExtractionAPIKey)

	app.logger.Info("Connecting to database")
	app.database, err = postgres.NewDB(app.ctx, app.secrets.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := app.database.RunMigrations(app.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	app.logger.Info("Database ready")

	return nil
}

// Command definitions

func importDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "importData",
		Short: "Import employees and worked history from the source spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ImportData(app.ctx, app.database, app.sheetsClient, app.cfg, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("\nImport complete.\n\n")
			fmt.Printf("Employees:      %d\n", result.Employees)
			fmt.Printf("History shifts: %d\n\n", result.HistoryShifts)

			return nil
		},
	}
}

func extractRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extractRules",
		Short: "Run the staff requests through the extraction service and store the rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.ExtractRules(app.ctx, app.database, app.sheetsClient, app.extractClient, app.cfg, app.logger)
			if err != nil {
				return err
			}

			fmt.Printf("\nExtraction complete.\n\n")
			fmt.Printf("Requests:   %d\n", result.Requests)
			fmt.Printf("Rules:      %d\n", result.Rules)
			fmt.Printf("Unparsable: %d\n\n", result.Unparsable)

			return nil
		},
	}
}

func validateRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validateRules",
		Short: "Validate the stored rules against the configured period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := services.ValidateRules(app.ctx, app.database, app.cfg, app.logger)
			if err != nil {
				return err
			}

			valid, invalid, unparsable := report.Counts()
			fmt.Printf("\nValidated %d rules: %d valid, %d invalid, %d unparsable\n\n",
				len(report.Outcomes), valid, invalid, unparsable)

			for i, outcome := range report.Outcomes {
				switch outcome.Verdict {
				case rules.VerdictInvalid:
					fmt.Printf("  INVALID    %q: %s\n", report.Records[i].SourceText, outcome.Reason)
				case rules.VerdictUnparsable:
					fmt.Printf("  UNPARSABLE %q: %s\n", report.Records[i].SourceText, outcome.Reason)
				}
			}
			fmt.Println()

			return nil
		},
	}
}

func generateRosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateRoster",
		Short: "Compile and solve the roster for the configured period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			noPublish, _ := cmd.Flags().GetBool("no-publish")

			opts := services.GenerateOptions{DryRun: dryRun}
			if !dryRun && !noPublish {
				opts.Publisher = app.sheetsClient
			}

			result, err := services.GenerateRoster(app.ctx, app.database, app.cfg, app.logger, opts)
			if err != nil {
				return err
			}

			if !result.Solver.Status.HasSolution() {
				fmt.Printf("\nNo roster found (solver status %s, %d decisions in %s)\n",
					string(result.Solver.Status), result.Solver.Decisions,
					result.Solver.Elapsed.Round(time.Millisecond))
				for _, skip := range result.Skipped {
					fmt.Printf("  skipped rule %s: %s\n", skip.Rule.Key(), skip.Reason)
				}
				fmt.Println("Relax some hard rules and run again.")
				return fmt.Errorf("solver status %s", result.Solver.Status)
			}

			fmt.Printf("\nRoster %s (status %s, objective %d, %d decisions in %s)\n\n",
				result.Run.ID, result.Run.Status, result.Run.Objective,
				result.Solver.Decisions, result.Solver.Elapsed.Round(time.Millisecond))

			for _, skip := range result.Skipped {
				fmt.Printf("  skipped rule %s: %s\n", skip.Rule.Key(), skip.Reason)
			}
			if len(result.Skipped) > 0 {
				fmt.Println()
			}

			printGrid(result.Schedule.Grid())

			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Solve and print without saving or publishing")
	cmd.Flags().Bool("no-publish", false, "Save the roster but skip the spreadsheet")

	return cmd
}

func listEmployeesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listEmployees",
		Short: "List the employees currently in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := app.database.GetEmployees(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list employees: %w", err)
			}

			fmt.Printf("\nFound %d employees:\n\n", len(records))
			for _, r := range records {
				role := r.Role
				if role == "" {
					role = "-"
				}
				fmt.Printf("- %s (%s) %s, unit %s, role %s, %s\n",
					r.Name, r.ID, r.EmploymentType, r.Unit, role, r.Status)
			}
			fmt.Println()

			return nil
		},
	}
}

func listRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listRuns",
		Short: "List past roster runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := app.database.GetRosterRuns(app.ctx)
			if err != nil {
				return fmt.Errorf("failed to list roster runs: %w", err)
			}

			fmt.Printf("\nFound %d runs:\n\n", len(runs))
			for _, r := range runs {
				fmt.Printf("- %s  %s to %s  %s  objective %d\n",
					r.ID, r.PeriodStart, r.PeriodEnd, r.Status, r.Objective)
			}
			fmt.Println()

			return nil
		},
	}
}

// printGrid writes the schedule grid as fixed-width columns.
func printGrid(grid [][]string) {
	if len(grid) == 0 {
		return
	}

	widths := make([]int, len(grid[0]))
	for _, row := range grid {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for _, row := range grid {
		for i, cell := range row {
			fmt.Printf("%-*s  ", widths[i], cell)
		}
		fmt.Println()
	}
	fmt.Println()
}

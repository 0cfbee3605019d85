package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

// DefaultsConfig carries the facility scheduling policy.
type DefaultsConfig struct {
	MaxConsecutiveWork        int      `yaml:"maxConsecutiveWork,omitempty" validate:"omitempty,min=1"`
	ManagerMaxConsecutiveWork int      `yaml:"managerMaxConsecutiveWork,omitempty" validate:"omitempty,min=1"`
	ManagerRoles              []string `yaml:"managerRoles,omitempty"`
}

// SolverConfig bounds the search effort per run.
type SolverConfig struct {
	TimeLimitSeconds int   `yaml:"timeLimitSeconds,omitempty" validate:"omitempty,min=1"`
	MaxDecisions     int64 `yaml:"maxDecisions,omitempty" validate:"omitempty,min=1"`
}

// SheetsConfig names the spreadsheet and tabs the facility maintains by
// hand: the employee roster, the free-text rule list, and the worked
// history.
type SheetsConfig struct {
	SourceSheetID string `yaml:"sourceSheetID" validate:"required"`
	EmployeesTab  string `yaml:"employeesTab" validate:"required"`
	RulesTab      string `yaml:"rulesTab" validate:"required"`
	HistoryTab    string `yaml:"historyTab" validate:"required"`
	RosterSheetID string `yaml:"rosterSheetID" validate:"required"`
}

// Config represents the application configuration.
type Config struct {
	// PeriodStart is the first day of the next scheduling period, ISO
	// formatted.
	PeriodStart string `yaml:"periodStart" validate:"required,datetime=2006-01-02"`
	// Weeks is the period length.
	Weeks int `yaml:"weeks" validate:"required,min=1,max=6"`

	// Holidays lists one-off public holidays as ISO dates. HolidayRules
	// adds recurring ones as RRULE expressions, expanded per period.
	Holidays     []string `yaml:"holidays,omitempty" validate:"dive,datetime=2006-01-02"`
	HolidayRules []string `yaml:"holidayRules,omitempty"`

	Sheets SheetsConfig `yaml:"sheets" validate:"required"`

	// ExtractionURL is the rule extraction service endpoint.
	ExtractionURL string `yaml:"extractionURL" validate:"required,url"`

	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Solver   SolverConfig   `yaml:"solver,omitempty"`

	// Weights overrides penalty category multipliers by category name.
	Weights map[string]int64 `yaml:"weights,omitempty" validate:"dive,min=0"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from rostergen_config.yaml,
// looking in the current directory first, then the user's home directory.
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for a named environment, e.g.
// env="test" reads rostergen_config.test.yaml.
func LoadWithEnv(env string) (*Config, error) {
	name := "rostergen_config.yaml"
	if env != "" {
		name = "rostergen_config." + env + ".yaml"
	}
	path, err := findFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	return LoadFromPath(path)
}

// LoadFromPath loads and validates the configuration from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, rule := range cfg.HolidayRules {
		if _, err := rrule.StrToRRule(rule); err != nil {
			return fmt.Errorf("invalid rrule in holidayRules[%d]: %w", i, err)
		}
	}

	return nil
}

// Period returns the scheduling period the config describes.
func (c *Config) Period() (model.Period, error) {
	start, err := time.Parse("2006-01-02", c.PeriodStart)
	if err != nil {
		return model.Period{}, fmt.Errorf("failed to parse period start: %w", err)
	}
	start = model.Date(start.Year(), start.Month(), start.Day())
	return model.Period{
		Start: start,
		End:   start.AddDate(0, 0, c.Weeks*7-1),
	}, nil
}

// HolidayDates expands the one-off holidays and the recurring holiday
// rules into the dates falling inside the period.
func (c *Config) HolidayDates(period model.Period) ([]time.Time, error) {
	var dates []time.Time
	for _, h := range c.Holidays {
		parsed, err := time.Parse("2006-01-02", h)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holiday %q: %w", h, err)
		}
		date := model.Date(parsed.Year(), parsed.Month(), parsed.Day())
		if period.Contains(date) {
			dates = append(dates, date)
		}
	}

	for i, expr := range c.HolidayRules {
		rule, err := rrule.StrToRRule(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in holidayRules[%d]: %w", i, err)
		}
		// Anchor the rule at the period start so occurrences land on
		// period dates regardless of when the run happens.
		rule.DTStart(period.Start)
		for _, occ := range rule.Between(period.Start, period.End, true) {
			dates = append(dates, model.Date(occ.Year(), occ.Month(), occ.Day()))
		}
	}

	return dates, nil
}

// findFile searches for a file in the current directory and the home
// directory.
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}

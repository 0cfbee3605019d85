// Package solver finds assignments for compiled constraint models. The
// Adapter interface is the seam between model compilation and any solving
// backend; the package ships a deterministic branch-and-bound solver as
// the default backend.
package solver

import (
	"context"
	"time"

	"github.com/hollybank-care/rostergen/pkg/core/cpmodel"
)

// Status is the solver's verdict on a model.
type Status string

const (
	// StatusOptimal means the returned assignment is proven best, or, for a
	// model without an objective, that a feasible assignment was found.
	StatusOptimal Status = "OPTIMAL"
	// StatusFeasible means an assignment was found but the search budget ran
	// out before optimality was proven.
	StatusFeasible Status = "FEASIBLE"
	// StatusInfeasible means the search proved no assignment exists.
	StatusInfeasible Status = "INFEASIBLE"
	// StatusUnknown means the budget ran out before any assignment was found.
	StatusUnknown Status = "UNKNOWN"
)

// HasSolution reports whether the status carries a usable assignment.
func (s Status) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Options bounds the search effort.
type Options struct {
	// TimeLimit caps wall-clock search time. Zero means no limit.
	TimeLimit time.Duration
	// MaxDecisions caps the number of branching decisions. Zero means no
	// limit.
	MaxDecisions int64
}

// Result is the outcome of one solve.
type Result struct {
	Status Status
	// Values holds one value per model variable, indexed by variable. Only
	// meaningful when Status carries a solution.
	Values []int64
	// Objective is the objective value of the returned assignment. Zero for
	// models without an objective.
	Objective int64
	// Decisions counts the branching decisions the search made.
	Decisions int64
	// Elapsed is the wall-clock search time.
	Elapsed time.Duration
}

// Adapter is a solving backend for compiled models. Implementations must
// be safe for sequential reuse; concurrent solves should use separate
// instances.
type Adapter interface {
	Solve(ctx context.Context, m *cpmodel.Model, opts Options) (Result, error)
}

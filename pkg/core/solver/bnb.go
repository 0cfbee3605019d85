package solver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/cpmodel"
)

// BranchAndBound is the default solving backend: depth-first search over
// bitset domains with constraint propagation at every node and objective
// bounding once a solution is known. Value order is ascending and variable
// order is smallest domain first, so results are deterministic.
type BranchAndBound struct {
	logger *zap.Logger
}

// New returns a branch-and-bound solver logging through the given logger.
func New(logger *zap.Logger) *BranchAndBound {
	return &BranchAndBound{logger: logger}
}

var _ Adapter = (*BranchAndBound)(nil)

const budgetCheckInterval = 256

type search struct {
	model       *cpmodel.Model
	constraints []cpmodel.Constraint
	objective   cpmodel.LinearExpr
	hasObj      bool

	ctx          context.Context
	deadline     time.Time
	hasDeadline  bool
	maxDecisions int64

	decisions int64
	aborted   bool

	best    []int64
	bestObj int64
	found   bool
}

// Solve runs the search within the option budget.
func (s *BranchAndBound) Solve(ctx context.Context, m *cpmodel.Model, opts Options) (Result, error) {
	start := time.Now()

	doms := make([]domain, m.NumVars())
	for i := 0; i < m.NumVars(); i++ {
		info := m.VarInfoAt(i)
		d, err := newDomain(info.Lo, info.Hi)
		if err != nil {
			return Result{}, err
		}
		doms[i] = d
	}

	run := &search{
		model:        m,
		constraints:  m.Constraints(),
		maxDecisions: opts.MaxDecisions,
		ctx:          ctx,
	}
	run.objective, run.hasObj = m.Objective()
	if opts.TimeLimit > 0 {
		run.deadline = start.Add(opts.TimeLimit)
		run.hasDeadline = true
	}

	run.dfs(doms)

	elapsed := time.Since(start)
	result := Result{Decisions: run.decisions, Elapsed: elapsed}
	switch {
	case run.found && !run.aborted:
		result.Status = StatusOptimal
	case run.found:
		result.Status = StatusFeasible
	case run.aborted:
		result.Status = StatusUnknown
	default:
		result.Status = StatusInfeasible
	}
	if run.found {
		result.Values = run.best
		if run.hasObj {
			result.Objective = run.bestObj
		}
	}

	s.logger.Info("solve finished",
		zap.String("status", string(result.Status)),
		zap.Int64("objective", result.Objective),
		zap.Int64("decisions", result.Decisions),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *search) overBudget() bool {
	if s.aborted {
		return true
	}
	if s.maxDecisions > 0 && s.decisions >= s.maxDecisions {
		s.aborted = true
		return true
	}
	if s.decisions%budgetCheckInterval == 0 {
		if s.hasDeadline && time.Now().After(s.deadline) {
			s.aborted = true
		}
		if s.ctx.Err() != nil {
			s.aborted = true
		}
	}
	return s.aborted
}

func (s *search) dfs(doms []domain) {
	if s.aborted {
		return
	}
	if !propagate(s.constraints, doms) {
		return
	}
	if s.hasObj && s.found {
		if lowerBound(s.objective, doms) > s.bestObj-1 {
			return
		}
	}

	branch, ok := pickVar(doms)
	if !ok {
		s.recordSolution(doms)
		return
	}

	for _, value := range doms[branch].values() {
		s.decisions++
		if s.overBudget() {
			return
		}
		child := cloneDomains(doms)
		child[branch].fixTo(value)
		s.dfs(child)
		if s.aborted {
			return
		}
		if s.found && !s.hasObj {
			// Without an objective the first solution is as good as any.
			return
		}
	}
}

func (s *search) recordSolution(doms []domain) {
	values := make([]int64, len(doms))
	for i := range doms {
		values[i], _ = doms[i].single()
	}
	if s.hasObj {
		obj := s.objective.Eval(values)
		if s.found && obj >= s.bestObj {
			return
		}
		s.bestObj = obj
	}
	s.best = values
	s.found = true
}

// pickVar selects the unassigned variable with the fewest remaining
// values, breaking ties by index.
func pickVar(doms []domain) (int, bool) {
	best, bestCount := -1, 0
	for i := range doms {
		if doms[i].count <= 1 {
			continue
		}
		if best == -1 || doms[i].count < bestCount {
			best, bestCount = i, doms[i].count
		}
	}
	return best, best != -1
}

func cloneDomains(doms []domain) []domain {
	out := make([]domain, len(doms))
	for i := range doms {
		out[i] = doms[i].clone()
	}
	return out
}

// lowerBound evaluates the least value an expression can take under the
// current domains.
func lowerBound(expr cpmodel.LinearExpr, doms []domain) int64 {
	total := expr.Offset
	for _, t := range expr.Terms {
		d := &doms[t.Var.Index()]
		if t.Coef >= 0 {
			total += t.Coef * d.min()
		} else {
			total += t.Coef * d.max()
		}
	}
	return total
}

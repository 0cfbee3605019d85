// Package roster turns a validated rule set, an employee roster, and a
// calendar into a finite-domain constraint model: one decision variable
// per employee and day, hard constraints for binding rules, and a weighted
// penalty objective for the soft ones.
package roster

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/cpmodel"
	"github.com/hollybank-care/rostergen/pkg/core/model"
)

// Facility-wide consecutive-work caps applied when no explicit rule covers
// an employee.
const (
	DefaultMaxConsecutiveWork        = 4
	DefaultManagerMaxConsecutiveWork = 5
)

// Defaults carries the facility policy applied in the absence of explicit
// rules.
type Defaults struct {
	MaxConsecutiveWork        int
	ManagerMaxConsecutiveWork int
	ManagerRoles              []string
}

func (d Defaults) normalized() Defaults {
	if d.MaxConsecutiveWork == 0 {
		d.MaxConsecutiveWork = DefaultMaxConsecutiveWork
	}
	if d.ManagerMaxConsecutiveWork == 0 {
		d.ManagerMaxConsecutiveWork = DefaultManagerMaxConsecutiveWork
	}
	return d
}

func (d Defaults) maxConsecutiveFor(e model.Employee) int {
	for _, role := range d.ManagerRoles {
		if e.Role == role {
			return d.ManagerMaxConsecutiveWork
		}
	}
	return d.MaxConsecutiveWork
}

// Input is everything the compiler needs for one scheduling run.
type Input struct {
	Calendar  model.Calendar
	Employees []model.Employee
	History   model.History
	Rules     []model.Rule
	Defaults  Defaults
	Weights   Weights
}

// Penalty is one soft-violation measure awaiting objective assembly. Scale
// multiplies the category weight, so a rule-supplied weight can amplify
// its own term.
type Penalty struct {
	Category Category
	Label    string
	Expr     cpmodel.LinearExpr
	Scale    int64
}

// Skip records a rule the compiler could not apply and why.
type Skip struct {
	Rule   model.Rule
	Reason string
}

// Compiled is the ready-to-solve model plus the bookkeeping needed to read
// a solution back out.
type Compiled struct {
	Model     *cpmodel.Model
	Vars      [][]cpmodel.IntVar
	Employees []model.Employee
	Calendar  model.Calendar
	Penalties []Penalty
	Skipped   []Skip
}

// ShiftAt reads the assigned shift for one employee and day out of a full
// solver assignment.
func (c *Compiled) ShiftAt(values []int64, employee, day int) model.ShiftCode {
	return model.ShiftCode(values[c.Vars[employee][day].Index()])
}

// Compiler builds constraint models. It is stateless between runs.
type Compiler struct {
	logger *zap.Logger
}

// NewCompiler returns a compiler logging through the given logger.
func NewCompiler(logger *zap.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Compile builds the full constraint model for one run. Rules that cannot
// be applied are skipped and reported, never silently dropped.
func (c *Compiler) Compile(input Input) (*Compiled, error) {
	if len(input.Employees) == 0 {
		return nil, fmt.Errorf("cannot compile a model with no employees")
	}
	if input.Calendar.NumDays() == 0 {
		return nil, fmt.Errorf("cannot compile a model with an empty calendar")
	}
	input.Defaults = input.Defaults.normalized()
	if input.Weights == nil {
		input.Weights = DefaultWeights()
	}

	b := &builder{
		input:    input,
		logger:   c.logger,
		model:    cpmodel.New(),
		resolver: NewResolver(input.Employees, c.logger),
		shiftLits: map[litKey]cpmodel.BoolVar{},
		partLits:  map[partKey]cpmodel.BoolVar{},
	}

	b.createVars()
	b.pinLeave()

	rules := b.dedupe(input.Rules)
	b.recordExplicitConsecutive(rules)

	for _, rule := range rules {
		b.emit(rule)
	}

	b.emitBuiltinRotation(rules)
	b.emitDefaultConsecutive(rules)
	b.assembleObjective()

	c.logger.Info("compiled constraint model",
		zap.Int("employees", len(input.Employees)),
		zap.Int("days", input.Calendar.NumDays()),
		zap.Int("rules", len(rules)),
		zap.Int("variables", b.model.NumVars()),
		zap.Int("constraints", len(b.model.Constraints())),
		zap.Int("penaltyTerms", len(b.penalties)),
		zap.Int("skippedRules", len(b.skipped)),
	)

	return &Compiled{
		Model:     b.model,
		Vars:      b.vars,
		Employees: input.Employees,
		Calendar:  input.Calendar,
		Penalties: b.penalties,
		Skipped:   b.skipped,
	}, nil
}

// dedupe drops every rule whose canonical key was already seen, keeping the
// first occurrence. Duplicates are reported, not errors: the same
// instruction often reaches the rule store through more than one channel.
func (b *builder) dedupe(rules []model.Rule) []model.Rule {
	seen := make(map[string]bool, len(rules))
	kept := make([]model.Rule, 0, len(rules))
	for _, rule := range rules {
		key := rule.Key()
		if seen[key] {
			b.logger.Warn("skipping duplicate rule", zap.String("key", key))
			b.skipped = append(b.skipped, Skip{Rule: rule, Reason: "duplicate of an earlier rule"})
			continue
		}
		seen[key] = true
		kept = append(kept, rule)
	}
	return kept
}

// recordExplicitConsecutive notes which employees are covered by an
// explicit consecutive-work or consecutive-off rule. Employee-targeted
// rules additionally shadow group-targeted ones for their employee.
func (b *builder) recordExplicitConsecutive(rules []model.Rule) {
	b.explicitWork = map[int]bool{}
	b.explicitOff = map[int]bool{}
	b.employeeWork = map[int]bool{}
	b.employeeOff = map[int]bool{}
	for _, rule := range rules {
		switch r := rule.(type) {
		case model.MaxConsecutiveWork:
			for _, e := range b.resolver.Target(r.On) {
				b.explicitWork[e] = true
				if r.On.Kind() == model.TargetEmployee {
					b.employeeWork[e] = true
				}
			}
		case model.MaxConsecutiveOff:
			for _, e := range b.resolver.Target(r.On) {
				b.explicitOff[e] = true
				if r.On.Kind() == model.TargetEmployee {
					b.employeeOff[e] = true
				}
			}
		}
	}
}

// emitBuiltinRotation enforces the night duty recovery pattern: a night
// shift is followed by post_night, and post_night by a day off. A
// facility-wide hard ENFORCE_SHIFT_SEQUENCE rule with the same pair
// replaces the built-in, so operators can restate the pattern without
// doubling it.
func (b *builder) emitBuiltinRotation(rules []model.Rule) {
	pairs := []struct {
		preceding  model.ShiftCode
		subsequent model.ShiftCode
	}{
		{model.ShiftNight, model.ShiftPostNight},
		{model.ShiftPostNight, model.ShiftOff},
	}

	for _, pair := range pairs {
		if hasFacilitySequence(rules, pair.preceding, pair.subsequent) {
			b.logger.Info("facility rule restates built-in rotation step, skipping built-in",
				zap.String("preceding", pair.preceding.String()),
				zap.String("subsequent", pair.subsequent.String()),
			)
			continue
		}
		seq := model.EnforceShiftSequence{
			On:         model.GroupTarget(model.GroupAll),
			Preceding:  pair.preceding,
			Subsequent: pair.subsequent,
			Hard:       true,
		}
		b.emitEnforceSequence(seq)
	}
}

func hasFacilitySequence(rules []model.Rule, preceding, subsequent model.ShiftCode) bool {
	for _, rule := range rules {
		seq, ok := rule.(model.EnforceShiftSequence)
		if !ok {
			continue
		}
		if seq.Hard && seq.On == model.GroupTarget(model.GroupAll) &&
			seq.Preceding == preceding && seq.Subsequent == subsequent {
			return true
		}
	}
	return false
}

// emitDefaultConsecutive applies the facility's consecutive-work cap to
// every employee no explicit rule covers.
func (b *builder) emitDefaultConsecutive(rules []model.Rule) {
	for e, employee := range b.input.Employees {
		if employee.OnLeave() || b.explicitWork[e] {
			continue
		}
		maxDays := b.input.Defaults.maxConsecutiveFor(employee)
		b.emitMaxRun(e, maxDays, model.ShiftCode.IsWorking, b.workingLit, true,
			CategoryConsecutive, 1, fmt.Sprintf("default max consecutive work %s", employee.ID))
	}
}

// assembleObjective folds the collected penalty terms into one weighted
// minimization objective. A model with no soft terms gets no objective at
// all, which lets a solver stop at the first feasible assignment.
func (b *builder) assembleObjective() {
	if len(b.penalties) == 0 {
		return
	}
	var objective cpmodel.LinearExpr
	for _, p := range b.penalties {
		scale := p.Scale
		if scale < 1 {
			scale = 1
		}
		objective = objective.AddExpr(p.Expr.Scale(b.input.Weights.Of(p.Category) * scale))
	}
	b.model.Minimize(objective)
}

package cpmodel

import (
	"fmt"
	"slices"
)

// Violation describes one constraint a candidate solution breaks.
type Violation struct {
	Constraint int // index into Constraints()
	Reason     string
}

func (v Violation) String() string {
	return fmt.Sprintf("constraint %d: %s", v.Constraint, v.Reason)
}

func litHolds(l Literal, values []int64) bool {
	set := values[l.Var.Index()] != 0
	return set != l.Negated
}

// CheckSolution evaluates every constraint and variable bound under a full
// assignment and returns the violations. An empty result means the
// assignment is a solution.
func (m *Model) CheckSolution(values []int64) []Violation {
	var violations []Violation

	if len(values) != len(m.vars) {
		return []Violation{{Constraint: -1, Reason: fmt.Sprintf("assignment has %d values for %d variables", len(values), len(m.vars))}}
	}

	for i, info := range m.vars {
		if values[i] < info.Lo || values[i] > info.Hi {
			violations = append(violations, Violation{Constraint: -1,
				Reason: fmt.Sprintf("variable %s=%d outside bounds [%d, %d]", info.Name, values[i], info.Lo, info.Hi)})
		}
	}

	for i, c := range m.constraints {
		if reason, ok := checkConstraint(c, values); !ok {
			violations = append(violations, Violation{Constraint: i, Reason: reason})
		}
	}

	return violations
}

func checkConstraint(c Constraint, values []int64) (string, bool) {
	switch c.Kind {
	case ConstraintLinear:
		got := c.Expr.Eval(values)
		if got < c.Lo || got > c.Hi {
			return fmt.Sprintf("linear expression is %d, want within [%d, %d]", got, c.Lo, c.Hi), false
		}
	case ConstraintEqualityReif:
		eq := values[c.Var.Index()] == c.Value
		set := values[c.Bool.Index()] != 0
		if eq != set {
			return fmt.Sprintf("reified equality: var==%d is %t but indicator is %t", c.Value, eq, set), false
		}
	case ConstraintMembershipReif:
		member := slices.Contains(c.Values, values[c.Var.Index()])
		set := values[c.Bool.Index()] != 0
		if member != set {
			return fmt.Sprintf("reified membership: var in %v is %t but indicator is %t", c.Values, member, set), false
		}
	case ConstraintAllowedValues:
		if !slices.Contains(c.Values, values[c.Var.Index()]) {
			return fmt.Sprintf("value %d not in allowed set %v", values[c.Var.Index()], c.Values), false
		}
	case ConstraintForbiddenValues:
		if slices.Contains(c.Values, values[c.Var.Index()]) {
			return fmt.Sprintf("value %d is forbidden", values[c.Var.Index()]), false
		}
	case ConstraintEqualityIf:
		if litHolds(c.Cond, values) && values[c.Var.Index()] != c.Value {
			return fmt.Sprintf("enforced equality: condition holds but var is %d, want %d", values[c.Var.Index()], c.Value), false
		}
	case ConstraintBoolOr:
		for _, l := range c.Literals {
			if litHolds(l, values) {
				return "", true
			}
		}
		return "no literal of the disjunction holds", false
	case ConstraintMinEquality:
		want := values[c.Vars[0].Index()]
		for _, v := range c.Vars[1:] {
			want = min(want, values[v.Index()])
		}
		if values[c.Target.Index()] != want {
			return fmt.Sprintf("min equality: target is %d, want %d", values[c.Target.Index()], want), false
		}
	case ConstraintMaxEquality:
		want := values[c.Vars[0].Index()]
		for _, v := range c.Vars[1:] {
			want = max(want, values[v.Index()])
		}
		if values[c.Target.Index()] != want {
			return fmt.Sprintf("max equality: target is %d, want %d", values[c.Target.Index()], want), false
		}
	}
	return "", true
}

// Package cpmodel holds the finite-domain constraint model the compiler
// produces and the solver consumes: bounded integer decision variables,
// linear and reified constraints over them, and an optional linear
// minimization objective. The model is write-once for the compiler and
// read-only for solvers.
package cpmodel

import (
	"fmt"
	"math"
)

// NoLower and NoUpper mark an unbounded side of a linear constraint.
const (
	NoLower = math.MinInt64
	NoUpper = math.MaxInt64
)

// IntVar is a handle to a bounded integer variable.
type IntVar struct {
	index int32
}

// Index is the variable's position in the model's variable table.
func (v IntVar) Index() int { return int(v.index) }

// BoolVar is an IntVar with domain {0, 1}.
type BoolVar struct {
	IntVar
}

// Literal is a possibly negated boolean variable.
type Literal struct {
	Var     BoolVar
	Negated bool
}

// Lit returns the positive literal of the variable.
func (b BoolVar) Lit() Literal { return Literal{Var: b} }

// Not returns the negated literal of the variable.
func (b BoolVar) Not() Literal { return Literal{Var: b, Negated: true} }

// VarInfo describes one variable's bounds and name.
type VarInfo struct {
	Lo   int64
	Hi   int64
	Name string
}

// ConstraintKind discriminates the constraint record.
type ConstraintKind int

const (
	// ConstraintLinear bounds a linear expression: Lo <= Expr <= Hi.
	ConstraintLinear ConstraintKind = iota
	// ConstraintEqualityReif ties a boolean to an equality:
	// Bool == 1 exactly when Var == Value.
	ConstraintEqualityReif
	// ConstraintMembershipReif ties a boolean to set membership:
	// Bool == 1 exactly when Var's value is one of Values.
	ConstraintMembershipReif
	// ConstraintAllowedValues restricts Var to Values.
	ConstraintAllowedValues
	// ConstraintForbiddenValues removes Values from Var's domain.
	ConstraintForbiddenValues
	// ConstraintEqualityIf enforces Var == Value whenever Cond holds.
	ConstraintEqualityIf
	// ConstraintBoolOr requires at least one of Literals to hold.
	ConstraintBoolOr
	// ConstraintMinEquality fixes Target to the minimum of Vars.
	ConstraintMinEquality
	// ConstraintMaxEquality fixes Target to the maximum of Vars.
	ConstraintMaxEquality
)

// Constraint is one constraint record. Which fields are meaningful depends
// on Kind.
type Constraint struct {
	Kind ConstraintKind

	Expr   LinearExpr
	Lo, Hi int64

	Var    IntVar
	Value  int64
	Values []int64
	Bool   BoolVar
	Cond   Literal

	Literals []Literal

	Target IntVar
	Vars   []IntVar
}

// Model is the compiled constraint model.
type Model struct {
	vars        []VarInfo
	constraints []Constraint
	objective   *LinearExpr
}

// New creates an empty model.
func New() *Model {
	return &Model{}
}

// NewIntVar adds a bounded integer variable.
func (m *Model) NewIntVar(lo, hi int64, name string) IntVar {
	if hi < lo {
		panic(fmt.Sprintf("cpmodel: variable %q has inverted bounds [%d, %d]", name, lo, hi))
	}
	m.vars = append(m.vars, VarInfo{Lo: lo, Hi: hi, Name: name})
	return IntVar{index: int32(len(m.vars) - 1)}
}

// NewBoolVar adds a {0, 1} variable.
func (m *Model) NewBoolVar(name string) BoolVar {
	return BoolVar{m.NewIntVar(0, 1, name)}
}

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// VarInfo returns the bounds and name of a variable.
func (m *Model) VarInfo(v IntVar) VarInfo { return m.vars[v.index] }

// VarInfoAt returns the bounds and name of the variable at the given
// position in the variable table.
func (m *Model) VarInfoAt(index int) VarInfo { return m.vars[index] }

// Constraints exposes the constraint records, read-only by convention.
func (m *Model) Constraints() []Constraint { return m.constraints }

// AddLinear constrains lo <= expr <= hi. Use NoLower/NoUpper for an open
// side.
func (m *Model) AddLinear(expr LinearExpr, lo, hi int64) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintLinear, Expr: expr, Lo: lo, Hi: hi})
}

// AddLessOrEqual constrains expr <= bound.
func (m *Model) AddLessOrEqual(expr LinearExpr, bound int64) {
	m.AddLinear(expr, NoLower, bound)
}

// AddGreaterOrEqual constrains expr >= bound.
func (m *Model) AddGreaterOrEqual(expr LinearExpr, bound int64) {
	m.AddLinear(expr, bound, NoUpper)
}

// AddEqual constrains expr == value.
func (m *Model) AddEqual(expr LinearExpr, value int64) {
	m.AddLinear(expr, value, value)
}

// AddEqualityReif ties b to (v == value) in both directions.
func (m *Model) AddEqualityReif(v IntVar, value int64, b BoolVar) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintEqualityReif, Var: v, Value: value, Bool: b})
}

// AddMembershipReif ties b to (v in values) in both directions.
func (m *Model) AddMembershipReif(v IntVar, values []int64, b BoolVar) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintMembershipReif, Var: v, Values: values, Bool: b})
}

// AddAllowedValues restricts v to the given values.
func (m *Model) AddAllowedValues(v IntVar, values []int64) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintAllowedValues, Var: v, Values: values})
}

// AddForbiddenValues removes the given values from v's domain.
func (m *Model) AddForbiddenValues(v IntVar, values []int64) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintForbiddenValues, Var: v, Values: values})
}

// AddEqualityIf enforces v == value whenever cond holds. The converse is
// not implied.
func (m *Model) AddEqualityIf(v IntVar, value int64, cond Literal) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintEqualityIf, Var: v, Value: value, Cond: cond})
}

// AddBoolOr requires at least one literal to hold.
func (m *Model) AddBoolOr(literals ...Literal) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintBoolOr, Literals: literals})
}

// AddMinEquality fixes target to the minimum of vars.
func (m *Model) AddMinEquality(target IntVar, vars []IntVar) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintMinEquality, Target: target, Vars: vars})
}

// AddMaxEquality fixes target to the maximum of vars.
func (m *Model) AddMaxEquality(target IntVar, vars []IntVar) {
	m.constraints = append(m.constraints, Constraint{Kind: ConstraintMaxEquality, Target: target, Vars: vars})
}

// Minimize sets the linear minimization objective. Calling it again
// replaces the previous objective.
func (m *Model) Minimize(expr LinearExpr) {
	m.objective = &expr
}

// Objective returns the minimization objective, if one was set.
func (m *Model) Objective() (LinearExpr, bool) {
	if m.objective == nil {
		return LinearExpr{}, false
	}
	return *m.objective, true
}

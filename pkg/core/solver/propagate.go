package solver

import (
	"github.com/hollybank-care/rostergen/pkg/core/cpmodel"
)

// propagate tightens every domain to a fixpoint under the model's
// constraints. It returns false when some domain empties, meaning the
// current node is infeasible.
func propagate(constraints []cpmodel.Constraint, doms []domain) bool {
	for {
		changed := false
		for i := range constraints {
			ok, delta := applyConstraint(&constraints[i], doms)
			if !ok {
				return false
			}
			changed = changed || delta
		}
		if !changed {
			return true
		}
	}
}

func applyConstraint(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	switch c.Kind {
	case cpmodel.ConstraintLinear:
		return propagateLinear(c, doms)
	case cpmodel.ConstraintEqualityReif:
		return propagateEqualityReif(c, doms)
	case cpmodel.ConstraintMembershipReif:
		return propagateMembershipReif(c, doms)
	case cpmodel.ConstraintAllowedValues:
		return propagateAllowed(c, doms)
	case cpmodel.ConstraintForbiddenValues:
		return propagateForbidden(c, doms)
	case cpmodel.ConstraintEqualityIf:
		return propagateEqualityIf(c, doms)
	case cpmodel.ConstraintBoolOr:
		return propagateBoolOr(c, doms)
	case cpmodel.ConstraintMinEquality:
		return propagateMinEquality(c, doms)
	case cpmodel.ConstraintMaxEquality:
		return propagateMaxEquality(c, doms)
	}
	return true, false
}

// litState reads a literal under the current domains: +1 true, -1 false,
// 0 undecided.
func litState(l cpmodel.Literal, doms []domain) int {
	d := &doms[l.Var.Index()]
	v, fixed := d.single()
	if !fixed {
		return 0
	}
	holds := v == 1
	if l.Negated {
		holds = !holds
	}
	if holds {
		return 1
	}
	return -1
}

// forceLit fixes a literal true. Returns ok=false when that empties the
// domain.
func forceLit(l cpmodel.Literal, doms []domain) (ok, changed bool) {
	d := &doms[l.Var.Index()]
	want := int64(1)
	if l.Negated {
		want = 0
	}
	if v, fixed := d.single(); fixed {
		return v == want, false
	}
	if !d.fixTo(want) {
		return false, true
	}
	return true, true
}

func propagateLinear(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	sumMin := c.Expr.Offset
	sumMax := c.Expr.Offset
	for _, t := range c.Expr.Terms {
		d := &doms[t.Var.Index()]
		if d.empty() {
			return false, false
		}
		if t.Coef >= 0 {
			sumMin += t.Coef * d.min()
			sumMax += t.Coef * d.max()
		} else {
			sumMin += t.Coef * d.max()
			sumMax += t.Coef * d.min()
		}
	}
	if c.Lo != cpmodel.NoLower && sumMax < c.Lo {
		return false, false
	}
	if c.Hi != cpmodel.NoUpper && sumMin > c.Hi {
		return false, false
	}

	for _, t := range c.Expr.Terms {
		if t.Coef == 0 {
			continue
		}
		d := &doms[t.Var.Index()]
		var termMin, termMax int64
		if t.Coef >= 0 {
			termMin, termMax = t.Coef*d.min(), t.Coef*d.max()
		} else {
			termMin, termMax = t.Coef*d.max(), t.Coef*d.min()
		}
		restMin := sumMin - termMin
		restMax := sumMax - termMax

		// t.Coef * v must stay within [c.Lo - restMax, c.Hi - restMin].
		if c.Hi != cpmodel.NoUpper {
			bound := c.Hi - restMin
			if t.Coef > 0 {
				if d.removeAbove(floorDiv(bound, t.Coef)) {
					changed = true
				}
			} else {
				if d.removeBelow(ceilDiv(bound, t.Coef)) {
					changed = true
				}
			}
		}
		if c.Lo != cpmodel.NoLower {
			bound := c.Lo - restMax
			if t.Coef > 0 {
				if d.removeBelow(ceilDiv(bound, t.Coef)) {
					changed = true
				}
			} else {
				if d.removeAbove(floorDiv(bound, t.Coef)) {
					changed = true
				}
			}
		}
		if d.empty() {
			return false, changed
		}
	}
	return true, changed
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func ceilDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) == (b < 0)) {
		q++
	}
	return q
}

func propagateEqualityReif(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	v := &doms[c.Var.Index()]
	b := &doms[c.Bool.Index()]

	if bv, fixed := b.single(); fixed {
		if bv == 1 {
			if val, vf := v.single(); vf {
				return val == c.Value, false
			}
			if !v.fixTo(c.Value) {
				return false, true
			}
			return true, true
		}
		if v.remove(c.Value) {
			return !v.empty(), true
		}
		return true, false
	}

	if !v.has(c.Value) {
		if !b.fixTo(0) {
			return false, true
		}
		return true, true
	}
	if val, vf := v.single(); vf && val == c.Value {
		if !b.fixTo(1) {
			return false, true
		}
		return true, true
	}
	return true, false
}

func propagateMembershipReif(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	v := &doms[c.Var.Index()]
	b := &doms[c.Bool.Index()]

	inSet := func(val int64) bool {
		for _, s := range c.Values {
			if s == val {
				return true
			}
		}
		return false
	}

	if bv, fixed := b.single(); fixed {
		if bv == 1 {
			for _, val := range v.values() {
				if !inSet(val) {
					v.remove(val)
					changed = true
				}
			}
		} else {
			for _, s := range c.Values {
				if v.remove(s) {
					changed = true
				}
			}
		}
		return !v.empty(), changed
	}

	anyIn, anyOut := false, false
	for _, val := range v.values() {
		if inSet(val) {
			anyIn = true
		} else {
			anyOut = true
		}
	}
	switch {
	case !anyIn:
		if !b.fixTo(0) {
			return false, true
		}
		return true, true
	case !anyOut:
		if !b.fixTo(1) {
			return false, true
		}
		return true, true
	}
	return true, false
}

func propagateAllowed(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	v := &doms[c.Var.Index()]
	for _, val := range v.values() {
		keep := false
		for _, a := range c.Values {
			if a == val {
				keep = true
				break
			}
		}
		if !keep {
			v.remove(val)
			changed = true
		}
	}
	return !v.empty(), changed
}

func propagateForbidden(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	v := &doms[c.Var.Index()]
	for _, val := range c.Values {
		if v.remove(val) {
			changed = true
		}
	}
	return !v.empty(), changed
}

func propagateEqualityIf(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	v := &doms[c.Var.Index()]
	switch litState(c.Cond, doms) {
	case 1:
		if val, fixed := v.single(); fixed {
			return val == c.Value, false
		}
		if !v.fixTo(c.Value) {
			return false, true
		}
		return true, true
	case 0:
		// Contrapositive: the condition cannot hold once the value is gone.
		if !v.has(c.Value) {
			return forceLit(negate(c.Cond), doms)
		}
	}
	return true, false
}

func negate(l cpmodel.Literal) cpmodel.Literal {
	l.Negated = !l.Negated
	return l
}

func propagateBoolOr(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	undecided := -1
	for i, lit := range c.Literals {
		switch litState(lit, doms) {
		case 1:
			return true, false
		case 0:
			if undecided >= 0 {
				return true, false
			}
			undecided = i
		}
	}
	if undecided < 0 {
		return false, false
	}
	return forceLit(c.Literals[undecided], doms)
}

func propagateMinEquality(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	t := &doms[c.Target.Index()]
	lo, hi := int64(1)<<62, int64(1)<<62
	for _, v := range c.Vars {
		d := &doms[v.Index()]
		if d.empty() {
			return false, changed
		}
		if d.min() < lo {
			lo = d.min()
		}
		if d.max() < hi {
			hi = d.max()
		}
	}
	if t.removeBelow(lo) {
		changed = true
	}
	if t.removeAbove(hi) {
		changed = true
	}
	if t.empty() {
		return false, changed
	}
	// Every operand sits at or above the minimum.
	for _, v := range c.Vars {
		d := &doms[v.Index()]
		if d.removeBelow(t.min()) {
			changed = true
		}
		if d.empty() {
			return false, changed
		}
	}
	return true, changed
}

func propagateMaxEquality(c *cpmodel.Constraint, doms []domain) (ok, changed bool) {
	t := &doms[c.Target.Index()]
	lo, hi := int64(-1)<<62, int64(-1)<<62
	for _, v := range c.Vars {
		d := &doms[v.Index()]
		if d.empty() {
			return false, changed
		}
		if d.min() > lo {
			lo = d.min()
		}
		if d.max() > hi {
			hi = d.max()
		}
	}
	if t.removeBelow(lo) {
		changed = true
	}
	if t.removeAbove(hi) {
		changed = true
	}
	if t.empty() {
		return false, changed
	}
	for _, v := range c.Vars {
		d := &doms[v.Index()]
		if d.removeAbove(t.max()) {
			changed = true
		}
		if d.empty() {
			return false, changed
		}
	}
	return true, changed
}

package cpmodel

// Term is one weighted variable of a linear expression.
type Term struct {
	Var  IntVar
	Coef int64
}

// LinearExpr is a sum of weighted variables plus a constant offset.
// The zero value is the empty expression.
type LinearExpr struct {
	Terms  []Term
	Offset int64
}

// Sum builds the unweighted sum of the given variables.
func Sum(vars ...IntVar) LinearExpr {
	e := LinearExpr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.Terms = append(e.Terms, Term{Var: v, Coef: 1})
	}
	return e
}

// SumBools builds the unweighted sum of the given boolean variables.
func SumBools(vars ...BoolVar) LinearExpr {
	e := LinearExpr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		e.Terms = append(e.Terms, Term{Var: v.IntVar, Coef: 1})
	}
	return e
}

// FromVar builds an expression holding a single variable.
func FromVar(v IntVar) LinearExpr {
	return LinearExpr{Terms: []Term{{Var: v, Coef: 1}}}
}

// Add appends a weighted variable and returns the extended expression.
func (e LinearExpr) Add(v IntVar, coef int64) LinearExpr {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
	return e
}

// AddExpr appends every term of other (and its offset) and returns the
// extended expression.
func (e LinearExpr) AddExpr(other LinearExpr) LinearExpr {
	e.Terms = append(e.Terms, other.Terms...)
	e.Offset += other.Offset
	return e
}

// AddConstant shifts the expression's offset.
func (e LinearExpr) AddConstant(c int64) LinearExpr {
	e.Offset += c
	return e
}

// Scale multiplies every coefficient and the offset by k.
func (e LinearExpr) Scale(k int64) LinearExpr {
	scaled := LinearExpr{Terms: make([]Term, len(e.Terms)), Offset: e.Offset * k}
	for i, t := range e.Terms {
		scaled.Terms[i] = Term{Var: t.Var, Coef: t.Coef * k}
	}
	return scaled
}

// IsEmpty reports whether the expression has no terms.
func (e LinearExpr) IsEmpty() bool { return len(e.Terms) == 0 }

// Eval computes the expression's value under a full assignment, indexed by
// variable.
func (e LinearExpr) Eval(values []int64) int64 {
	total := e.Offset
	for _, t := range e.Terms {
		total += t.Coef * values[t.Var.Index()]
	}
	return total
}

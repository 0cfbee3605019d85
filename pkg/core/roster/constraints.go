package roster

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/cpmodel"
	"github.com/hollybank-care/rostergen/pkg/core/model"
)

type litKey struct {
	emp, day int
	shift    model.ShiftCode
}

type partKey struct {
	emp, day int
	working  bool
}

// builder holds the in-flight compilation state for one run.
type builder struct {
	input  Input
	logger *zap.Logger

	model    *cpmodel.Model
	resolver *Resolver
	vars     [][]cpmodel.IntVar

	shiftLits map[litKey]cpmodel.BoolVar
	partLits  map[partKey]cpmodel.BoolVar

	explicitWork map[int]bool
	explicitOff  map[int]bool
	employeeWork map[int]bool
	employeeOff  map[int]bool

	penalties []Penalty
	skipped   []Skip
}

func (b *builder) numDays() int { return b.input.Calendar.NumDays() }

func (b *builder) createVars() {
	b.vars = make([][]cpmodel.IntVar, len(b.input.Employees))
	for e, employee := range b.input.Employees {
		b.vars[e] = make([]cpmodel.IntVar, b.numDays())
		for d := range b.vars[e] {
			b.vars[e][d] = b.model.NewIntVar(0, model.NumShiftCodes-1,
				fmt.Sprintf("shift[%s][%d]", employee.ID, d))
		}
	}
}

// pinLeave fixes on-leave employees to their leave code for the whole
// period and removes leave codes from everyone else's domain.
func (b *builder) pinLeave() {
	leaveValues := make([]int64, 0, len(model.LeaveShiftCodes))
	for _, code := range model.LeaveShiftCodes {
		leaveValues = append(leaveValues, int64(code))
	}
	for e, employee := range b.input.Employees {
		if code, ok := employee.LeaveShift(); ok {
			for d := 0; d < b.numDays(); d++ {
				b.model.AddEqual(cpmodel.FromVar(b.vars[e][d]), int64(code))
			}
			continue
		}
		for d := 0; d < b.numDays(); d++ {
			b.model.AddForbiddenValues(b.vars[e][d], leaveValues)
		}
	}
}

// shiftLit returns the cached boolean tied to (employee e works shift s on
// day d), creating it on first use.
func (b *builder) shiftLit(e, d int, s model.ShiftCode) cpmodel.BoolVar {
	key := litKey{emp: e, day: d, shift: s}
	if lit, ok := b.shiftLits[key]; ok {
		return lit
	}
	lit := b.model.NewBoolVar(fmt.Sprintf("is[%s][%d]=%s", b.input.Employees[e].ID, d, s))
	b.model.AddEqualityReif(b.vars[e][d], int64(s), lit)
	b.shiftLits[key] = lit
	return lit
}

func (b *builder) partitionLit(e, d int, working bool) cpmodel.BoolVar {
	key := partKey{emp: e, day: d, working: working}
	if lit, ok := b.partLits[key]; ok {
		return lit
	}
	codes := model.WorkingShiftCodes
	label := "working"
	if !working {
		codes = model.OffShiftCodes
		label = "off"
	}
	values := make([]int64, 0, len(codes))
	for _, code := range codes {
		values = append(values, int64(code))
	}
	lit := b.model.NewBoolVar(fmt.Sprintf("%s[%s][%d]", label, b.input.Employees[e].ID, d))
	b.model.AddMembershipReif(b.vars[e][d], values, lit)
	b.partLits[key] = lit
	return lit
}

func (b *builder) workingLit(e, d int) cpmodel.BoolVar { return b.partitionLit(e, d, true) }
func (b *builder) offLit(e, d int) cpmodel.BoolVar     { return b.partitionLit(e, d, false) }

func (b *builder) skip(rule model.Rule, reason string) {
	b.logger.Warn("skipping rule",
		zap.String("key", rule.Key()),
		zap.String("reason", reason),
	)
	b.skipped = append(b.skipped, Skip{Rule: rule, Reason: reason})
}

func (b *builder) penalize(cat Category, label string, expr cpmodel.LinearExpr, scale int64) {
	b.penalties = append(b.penalties, Penalty{Category: cat, Label: label, Expr: expr, Scale: scale})
}

// daysMatching returns the day indexes the date-type matcher selects.
func (b *builder) daysMatching(dateType string) []int {
	var days []int
	for d, day := range b.input.Calendar.Days {
		if model.MatchDateType(day, dateType) {
			days = append(days, d)
		}
	}
	return days
}

func (b *builder) emit(rule model.Rule) {
	switch r := rule.(type) {
	case model.SpecifyDateShift:
		b.emitSpecifyDateShift(r)
	case model.ForbidShift:
		b.emitForbidShift(r)
	case model.AllowOnlyShifts:
		b.emitAllowOnlyShifts(r)
	case model.MaxConsecutiveWork:
		b.emitConsecutive(r, r.On, r.MaxDays, r.Hard, true)
	case model.MaxConsecutiveOff:
		b.emitConsecutive(r, r.On, r.MaxDays, r.Hard, false)
	case model.TotalShiftCount:
		b.emitTotalShiftCount(r)
	case model.MinTotalShiftDays:
		b.emitMinTotalShiftDays(r)
	case model.ForbidSimultaneousShift:
		b.emitForbidSimultaneous(r)
	case model.ForbidShiftSequence:
		b.emitForbidSequence(r)
	case model.EnforceShiftSequence:
		b.emitEnforceSequence(r)
	case model.RequiredStaffing:
		b.emitRequiredStaffing(r)
	case model.MinRoleOnDuty:
		b.emitMinRoleOnDuty(r)
	case model.BalanceOffDays:
		b.emitBalanceOffDays(r)
	default:
		b.skip(rule, fmt.Sprintf("no emission for rule type %s", rule.Type()))
	}
}

func (b *builder) emitSpecifyDateShift(r model.SpecifyDateShift) {
	e, ok := b.resolver.Employee(r.Employee)
	if !ok {
		b.skip(r, "target employee unavailable")
		return
	}
	d, ok := b.input.Calendar.DayIndex(r.Date)
	if !ok {
		b.skip(r, "date outside the scheduling period")
		return
	}
	if r.Hard {
		b.model.AddEqual(cpmodel.FromVar(b.vars[e][d]), int64(r.Shift))
		return
	}
	// Penalty of one when the requested shift is not assigned.
	lit := b.shiftLit(e, d, r.Shift)
	miss := cpmodel.SumBools(lit).Scale(-1).AddConstant(1)
	b.penalize(CategoryPreference, fmt.Sprintf("request %s day %d %s", r.Employee, d, r.Shift), miss, 1)
}

func (b *builder) emitForbidShift(r model.ForbidShift) {
	e, ok := b.resolver.Employee(r.Employee)
	if !ok {
		b.skip(r, "target employee unavailable")
		return
	}
	for d := 0; d < b.numDays(); d++ {
		b.model.AddForbiddenValues(b.vars[e][d], []int64{int64(r.Shift)})
	}
}

func (b *builder) emitAllowOnlyShifts(r model.AllowOnlyShifts) {
	e, ok := b.resolver.Employee(r.Employee)
	if !ok {
		b.skip(r, "target employee unavailable")
		return
	}
	values := make([]int64, 0, len(r.Allowed))
	for _, code := range r.Allowed {
		values = append(values, int64(code))
	}
	for d := 0; d < b.numDays(); d++ {
		b.model.AddAllowedValues(b.vars[e][d], values)
	}
}

func (b *builder) emitConsecutive(rule model.Rule, on model.Target, maxDays int, hard, working bool) {
	members := b.resolver.Target(on)
	if len(members) == 0 {
		b.skip(rule, "target resolved to no employees")
		return
	}
	inRun := model.ShiftCode.IsWorking
	runLit := b.workingLit
	cat := CategoryPreference
	if !working {
		inRun = model.ShiftCode.IsOff
		runLit = b.offLit
	}
	if on.Kind() == model.TargetGroup {
		cat = CategoryConsecutive
	}
	shadowed := b.employeeWork
	if !working {
		shadowed = b.employeeOff
	}
	for _, e := range members {
		if on.Kind() == model.TargetGroup && shadowed[e] {
			// An employee-specific cap overrides the group's for that employee.
			continue
		}
		b.emitMaxRun(e, maxDays, inRun, runLit, hard, cat, 1, rule.Key())
	}
}

// emitMaxRun caps run length with a sliding window: every window of
// maxDays+1 consecutive days may hold at most maxDays qualifying days.
// Windows reaching back into the recorded history shrink their budget by
// the carried run, bottoming out at zero.
func (b *builder) emitMaxRun(e, maxDays int, inRun func(model.ShiftCode) bool,
	runLit func(e, d int) cpmodel.BoolVar, hard bool, cat Category, scale int64, label string) {

	window := maxDays + 1
	carried := b.input.History.CarriedRun(b.input.Employees[e].ID, inRun)

	for start := -carried; start+window <= b.numDays(); start++ {
		first := start
		if first < 0 {
			first = 0
		}
		last := start + window - 1
		if last < 0 {
			continue
		}
		budget := int64(maxDays + start - first)
		if budget < 0 {
			budget = 0
		}

		lits := make([]cpmodel.BoolVar, 0, last-first+1)
		for d := first; d <= last; d++ {
			lits = append(lits, runLit(e, d))
		}
		expr := cpmodel.SumBools(lits...)

		if hard {
			b.model.AddLessOrEqual(expr, budget)
			continue
		}
		excess := b.model.NewIntVar(0, int64(len(lits)),
			fmt.Sprintf("runExcess[%s][%d]", b.input.Employees[e].ID, start))
		b.model.AddLessOrEqual(expr.Add(excess, -1), budget)
		b.penalize(cat, fmt.Sprintf("%s window %d", label, start), cpmodel.FromVar(excess), scale)
	}
}

func (b *builder) emitTotalShiftCount(r model.TotalShiftCount) {
	e, ok := b.resolver.Employee(r.Employee)
	if !ok {
		b.skip(r, "target employee unavailable")
		return
	}
	var count cpmodel.LinearExpr
	for d := 0; d < b.numDays(); d++ {
		for _, code := range r.Shifts {
			count = count.Add(b.shiftLit(e, d, code).IntVar, 1)
		}
	}

	if r.Hard {
		lo, hi := int64(cpmodel.NoLower), int64(cpmodel.NoUpper)
		if r.Min != nil {
			lo = int64(*r.Min)
		}
		if r.Max != nil {
			hi = int64(*r.Max)
		}
		b.model.AddLinear(count, lo, hi)
		return
	}

	if r.Min != nil {
		shortfall := b.model.NewIntVar(0, int64(*r.Min),
			fmt.Sprintf("countShort[%s]", r.Employee))
		b.model.AddGreaterOrEqual(count.Add(shortfall, 1), int64(*r.Min))
		b.penalize(CategoryPreference, fmt.Sprintf("total count shortfall %s", r.Employee),
			cpmodel.FromVar(shortfall), 1)
	}
	if r.Max != nil {
		overrun := b.model.NewIntVar(0, int64(b.numDays()),
			fmt.Sprintf("countOver[%s]", r.Employee))
		b.model.AddLessOrEqual(count.Add(overrun, -1), int64(*r.Max))
		b.penalize(CategoryPreference, fmt.Sprintf("total count overrun %s", r.Employee),
			cpmodel.FromVar(overrun), 1)
	}
}

func (b *builder) emitMinTotalShiftDays(r model.MinTotalShiftDays) {
	members := b.resolver.Group(r.Group)
	if len(members) == 0 {
		b.skip(r, "group resolved to no employees")
		return
	}
	for _, e := range members {
		var count cpmodel.LinearExpr
		for d := 0; d < b.numDays(); d++ {
			count = count.Add(b.shiftLit(e, d, r.Shift).IntVar, 1)
		}
		if r.Hard {
			b.model.AddGreaterOrEqual(count, int64(r.MinCount))
			continue
		}
		shortfall := b.model.NewIntVar(0, int64(r.MinCount),
			fmt.Sprintf("minTotalShort[%s][%s]", b.input.Employees[e].ID, r.Shift))
		b.model.AddGreaterOrEqual(count.Add(shortfall, 1), int64(r.MinCount))
		b.penalize(CategoryMinTotalShift,
			fmt.Sprintf("min %s days %s", r.Shift, b.input.Employees[e].ID),
			cpmodel.FromVar(shortfall), 1)
	}
}

func (b *builder) emitForbidSimultaneous(r model.ForbidSimultaneousShift) {
	first, ok1 := b.resolver.Employee(r.Employee)
	second, ok2 := b.resolver.Employee(r.Employee2)
	if !ok1 || !ok2 {
		b.skip(r, "one of the paired employees is unavailable")
		return
	}
	for d := 0; d < b.numDays(); d++ {
		b.model.AddBoolOr(
			b.shiftLit(first, d, r.Shift).Not(),
			b.shiftLit(second, d, r.Shift).Not(),
		)
	}
}

func (b *builder) emitForbidSequence(r model.ForbidShiftSequence) {
	members := b.resolver.Target(r.On)
	if len(members) == 0 {
		b.skip(r, "target resolved to no employees")
		return
	}
	for _, e := range members {
		id := b.input.Employees[e].ID

		if last, ok := b.input.History.At(id, 1); ok && last == r.Preceding {
			if r.Hard {
				b.model.AddForbiddenValues(b.vars[e][0], []int64{int64(r.Subsequent)})
			} else {
				b.penalize(CategorySequence, fmt.Sprintf("sequence carry-in %s", id),
					cpmodel.SumBools(b.shiftLit(e, 0, r.Subsequent)), 1)
			}
		}

		for d := 0; d+1 < b.numDays(); d++ {
			pre := b.shiftLit(e, d, r.Preceding)
			sub := b.shiftLit(e, d+1, r.Subsequent)
			if r.Hard {
				b.model.AddBoolOr(pre.Not(), sub.Not())
				continue
			}
			broken := b.model.NewBoolVar(fmt.Sprintf("seqBreak[%s][%d]", id, d))
			b.model.AddBoolOr(pre.Not(), sub.Not(), broken.Lit())
			b.penalize(CategorySequence, fmt.Sprintf("forbid sequence %s day %d", id, d),
				cpmodel.SumBools(broken), 1)
		}
	}
}

func (b *builder) emitEnforceSequence(r model.EnforceShiftSequence) {
	members := b.resolver.Target(r.On)
	if len(members) == 0 {
		b.skip(r, "target resolved to no employees")
		return
	}
	for _, e := range members {
		id := b.input.Employees[e].ID

		if last, ok := b.input.History.At(id, 1); ok && last == r.Preceding {
			if r.Hard {
				b.model.AddEqual(cpmodel.FromVar(b.vars[e][0]), int64(r.Subsequent))
			} else {
				miss := cpmodel.SumBools(b.shiftLit(e, 0, r.Subsequent)).Scale(-1).AddConstant(1)
				b.penalize(CategorySequence, fmt.Sprintf("sequence carry-in %s", id), miss, 1)
			}
		}

		for d := 0; d+1 < b.numDays(); d++ {
			pre := b.shiftLit(e, d, r.Preceding)
			if r.Hard {
				b.model.AddEqualityIf(b.vars[e][d+1], int64(r.Subsequent), pre.Lit())
				continue
			}
			sub := b.shiftLit(e, d+1, r.Subsequent)
			broken := b.model.NewBoolVar(fmt.Sprintf("seqMiss[%s][%d]", id, d))
			b.model.AddBoolOr(pre.Not(), sub.Lit(), broken.Lit())
			b.penalize(CategorySequence, fmt.Sprintf("enforce sequence %s day %d", id, d),
				cpmodel.SumBools(broken), 1)
		}
	}
}

func (b *builder) emitRequiredStaffing(r model.RequiredStaffing) {
	members := b.resolver.Group(r.Group)
	if r.Unit != "" {
		scoped := members[:0]
		for _, e := range members {
			if b.input.Employees[e].Unit == r.Unit {
				scoped = append(scoped, e)
			}
		}
		members = scoped
	}
	if len(members) == 0 {
		b.skip(r, "no employees match the staffing scope")
		return
	}
	days := b.daysMatching(r.DateType)
	if len(days) == 0 {
		b.skip(r, "no days match the date type")
		return
	}

	for _, d := range days {
		lits := make([]cpmodel.BoolVar, 0, len(members))
		for _, e := range members {
			lits = append(lits, b.shiftLit(e, d, r.Shift))
		}
		count := cpmodel.SumBools(lits...)

		if r.Hard {
			hi := int64(cpmodel.NoUpper)
			if r.MaxCount != nil {
				hi = int64(*r.MaxCount)
			}
			b.model.AddLinear(count, int64(r.MinCount), hi)
			continue
		}

		shortage := b.model.NewIntVar(0, int64(r.MinCount),
			fmt.Sprintf("staffShort[%s][%d]", r.Shift, d))
		b.model.AddGreaterOrEqual(count.Add(shortage, 1), int64(r.MinCount))
		b.penalize(CategoryStaffingShortage,
			fmt.Sprintf("staffing shortage %s day %d", r.Shift, d),
			cpmodel.FromVar(shortage), 1)

		if r.MaxCount != nil {
			excess := b.model.NewIntVar(0, int64(len(members)),
				fmt.Sprintf("staffOver[%s][%d]", r.Shift, d))
			b.model.AddLessOrEqual(count.Add(excess, -1), int64(*r.MaxCount))
			b.penalize(CategoryStaffingExcess,
				fmt.Sprintf("staffing excess %s day %d", r.Shift, d),
				cpmodel.FromVar(excess), 1)
		}
	}
}

func (b *builder) emitMinRoleOnDuty(r model.MinRoleOnDuty) {
	var members []int
	for e, employee := range b.input.Employees {
		if !employee.OnLeave() && employee.Role == r.Role {
			members = append(members, e)
		}
	}
	if len(members) == 0 {
		b.skip(r, "no active employees hold the role")
		return
	}
	days := b.daysMatching(r.DateType)
	if len(days) == 0 {
		b.skip(r, "no days match the date type")
		return
	}

	for _, d := range days {
		lits := make([]cpmodel.BoolVar, 0, len(members))
		for _, e := range members {
			lits = append(lits, b.workingLit(e, d))
		}
		count := cpmodel.SumBools(lits...)

		if r.Hard {
			b.model.AddGreaterOrEqual(count, int64(r.MinCount))
			continue
		}
		shortage := b.model.NewIntVar(0, int64(r.MinCount),
			fmt.Sprintf("roleShort[%s][%d]", r.Role, d))
		b.model.AddGreaterOrEqual(count.Add(shortage, 1), int64(r.MinCount))
		b.penalize(CategoryStaffingShortage,
			fmt.Sprintf("role coverage %s day %d", r.Role, d),
			cpmodel.FromVar(shortage), 1)
	}
}

// emitBalanceOffDays spreads off days evenly: the gap between the
// most-rested and least-rested member of the group is penalized.
func (b *builder) emitBalanceOffDays(r model.BalanceOffDays) {
	members := b.resolver.Group(r.Group)
	if len(members) < 2 {
		b.skip(r, "balance needs at least two employees")
		return
	}

	counts := make([]cpmodel.IntVar, 0, len(members))
	for _, e := range members {
		id := b.input.Employees[e].ID
		count := b.model.NewIntVar(0, int64(b.numDays()), fmt.Sprintf("offCount[%s]", id))
		var sum cpmodel.LinearExpr
		for d := 0; d < b.numDays(); d++ {
			sum = sum.Add(b.offLit(e, d).IntVar, 1)
		}
		b.model.AddEqual(sum.Add(count, -1), 0)
		counts = append(counts, count)
	}

	lowest := b.model.NewIntVar(0, int64(b.numDays()), fmt.Sprintf("offMin[%s]", r.Group))
	highest := b.model.NewIntVar(0, int64(b.numDays()), fmt.Sprintf("offMax[%s]", r.Group))
	b.model.AddMinEquality(lowest, counts)
	b.model.AddMaxEquality(highest, counts)

	gap := cpmodel.FromVar(highest).Add(lowest, -1)
	scale := int64(math.Round(r.Weight))
	if scale < 1 {
		scale = 1
	}
	b.penalize(CategoryBalance, fmt.Sprintf("off-day balance %s", r.Group), gap, scale)
}

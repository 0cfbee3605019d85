package roster

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/core/solver"
)

func testCalendar(t *testing.T, days int) model.Calendar {
	t.Helper()
	period := model.Period{
		Start: model.Date(2025, time.April, 10),
		End:   model.Date(2025, time.April, 10+days-1),
	}
	cal, err := model.NewCalendar(period, nil)
	require.NoError(t, err)
	return cal
}

func compileAndSolve(t *testing.T, input Input) (*Compiled, solver.Result) {
	t.Helper()
	compiled, err := NewCompiler(zap.NewNop()).Compile(input)
	require.NoError(t, err)

	result, err := solver.New(zap.NewNop()).Solve(context.Background(), compiled.Model, solver.Options{
		TimeLimit: 30 * time.Second,
	})
	require.NoError(t, err)
	return compiled, result
}

func intRef(i int) *int { return &i }

func TestCompileRejectsEmptyInput(t *testing.T) {
	_, err := NewCompiler(zap.NewNop()).Compile(Input{Calendar: testCalendar(t, 3)})
	assert.Error(t, err)

	_, err = NewCompiler(zap.NewNop()).Compile(Input{
		Employees: []model.Employee{{ID: "aiko", Status: model.StatusActive}},
	})
	assert.Error(t, err)
}

func TestCompilePinsLeaveAndForbidsItForOthers(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 3),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
			{ID: "sam", EmploymentType: model.EmploymentFullTime, Status: model.StatusSickLeave},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	for d := 0; d < 3; d++ {
		assert.Equal(t, model.ShiftLeave, compiled.ShiftAt(result.Values, 1, d))
		assert.NotEqual(t, model.ShiftLeave, compiled.ShiftAt(result.Values, 0, d))
	}
}

func TestCompileBuiltinNightRotation(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 4),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.SpecifyDateShift{
				Employee: "aiko",
				Date:     model.Date(2025, time.April, 10),
				Shift:    model.ShiftNight,
				Hard:     true,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	assert.Equal(t, model.ShiftNight, compiled.ShiftAt(result.Values, 0, 0))
	assert.Equal(t, model.ShiftPostNight, compiled.ShiftAt(result.Values, 0, 1))
	assert.Equal(t, model.ShiftOff, compiled.ShiftAt(result.Values, 0, 2))
}

func TestCompileFacilityRuleReplacesBuiltinRotation(t *testing.T) {
	// Restating a rotation step as a facility rule must not double the
	// constraint or change its meaning.
	input := Input{
		Calendar: testCalendar(t, 4),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.EnforceShiftSequence{
				On:         model.GroupTarget(model.GroupAll),
				Preceding:  model.ShiftNight,
				Subsequent: model.ShiftPostNight,
				Hard:       true,
			},
			model.SpecifyDateShift{
				Employee: "aiko",
				Date:     model.Date(2025, time.April, 10),
				Shift:    model.ShiftNight,
				Hard:     true,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	assert.Equal(t, model.ShiftPostNight, compiled.ShiftAt(result.Values, 0, 1))
	assert.Equal(t, model.ShiftOff, compiled.ShiftAt(result.Values, 0, 2))
}

func TestCompileForbidSequenceCarriesHistory(t *testing.T) {
	// The last history day was an early shift, so a hard early-into-night
	// ban blocks a night on the first period day even under coverage
	// pressure.
	input := Input{
		Calendar: testCalendar(t, 1),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		History: model.History{"aiko": {model.ShiftEarly}},
		Rules: []model.Rule{
			model.ForbidShiftSequence{
				On:         model.GroupTarget(model.GroupAll),
				Preceding:  model.ShiftEarly,
				Subsequent: model.ShiftNight,
				Hard:       true,
			},
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftNight,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     false,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.NotEqual(t, model.ShiftNight, compiled.ShiftAt(result.Values, 0, 0))
	assert.EqualValues(t, 100, result.Objective, "the blocked night leaves the coverage short")
}

func TestCompileForbidSequenceBetweenDays(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 2),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.ForbidShiftSequence{
				On:         model.GroupTarget(model.GroupAll),
				Preceding:  model.ShiftEarly,
				Subsequent: model.ShiftNight,
				Hard:       true,
			},
			model.SpecifyDateShift{
				Employee: "aiko",
				Date:     model.Date(2025, time.April, 10),
				Shift:    model.ShiftEarly,
				Hard:     true,
			},
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftNight,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     false,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Equal(t, model.ShiftEarly, compiled.ShiftAt(result.Values, 0, 0))
	assert.NotEqual(t, model.ShiftNight, compiled.ShiftAt(result.Values, 0, 1))
	assert.EqualValues(t, 200, result.Objective, "night coverage goes unmet on both days")
}

func TestCompileSoftForbidSequenceYieldsToCoverage(t *testing.T) {
	// A soft sequence ban only costs its penalty, so hard coverage still
	// places the night.
	input := Input{
		Calendar: testCalendar(t, 1),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		History: model.History{"aiko": {model.ShiftEarly}},
		Rules: []model.Rule{
			model.ForbidShiftSequence{
				On:         model.GroupTarget(model.GroupAll),
				Preceding:  model.ShiftEarly,
				Subsequent: model.ShiftNight,
				Hard:       false,
			},
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftNight,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     true,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Equal(t, model.ShiftNight, compiled.ShiftAt(result.Values, 0, 0))
	assert.EqualValues(t, 1, result.Objective, "the broken sequence costs its weight")
}

func TestCompileSkipsDuplicateRules(t *testing.T) {
	rule := model.ForbidShift{Employee: "aiko", Shift: model.ShiftNight}
	input := Input{
		Calendar: testCalendar(t, 2),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{rule, rule},
	}

	compiled, err := NewCompiler(zap.NewNop()).Compile(input)
	require.NoError(t, err)

	require.Len(t, compiled.Skipped, 1)
	assert.Contains(t, compiled.Skipped[0].Reason, "duplicate")
}

func TestCompileSkipsRuleForUnknownEmployee(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 2),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.ForbidShift{Employee: "nobody", Shift: model.ShiftNight},
		},
	}

	compiled, err := NewCompiler(zap.NewNop()).Compile(input)
	require.NoError(t, err)

	require.Len(t, compiled.Skipped, 1)
	assert.Equal(t, "target employee unavailable", compiled.Skipped[0].Reason)
}

func TestCompileAllowOnlyShifts(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 2),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.AllowOnlyShifts{Employee: "aiko", Allowed: []model.ShiftCode{model.ShiftDay}},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	for d := 0; d < 2; d++ {
		assert.Equal(t, model.ShiftDay, compiled.ShiftAt(result.Values, 0, d))
	}
}

func TestCompileConsecutiveWorkCarriesHistory(t *testing.T) {
	// Two working days carried in plus a cap of two forces a rest on the
	// first period day, whatever the coverage pressure.
	input := Input{
		Calendar: testCalendar(t, 3),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		History: model.History{"aiko": {model.ShiftDay, model.ShiftDay}},
		Rules: []model.Rule{
			model.MaxConsecutiveWork{On: model.EmployeeTarget("aiko"), MaxDays: 2, Hard: true},
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftDay,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     false,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.False(t, compiled.ShiftAt(result.Values, 0, 0).IsWorking())
	assert.Equal(t, model.ShiftDay, compiled.ShiftAt(result.Values, 0, 1))
	assert.Equal(t, model.ShiftDay, compiled.ShiftAt(result.Values, 0, 2))
	// One uncovered day at the shortage weight.
	assert.EqualValues(t, 100, result.Objective)
}

func TestCompileEmployeeCapShadowsGroupCap(t *testing.T) {
	baseInput := func() Input {
		return Input{
			Calendar: testCalendar(t, 3),
			Employees: []model.Employee{
				{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
				{ID: "noor", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
			},
			Rules: []model.Rule{
				model.MaxConsecutiveWork{On: model.GroupTarget(model.GroupAll), MaxDays: 1, Hard: true},
				model.MaxConsecutiveWork{On: model.EmployeeTarget("aiko"), MaxDays: 3, Hard: true},
			},
		}
	}

	pinTwoDays := func(input Input, employee string) Input {
		for d := 0; d < 2; d++ {
			input.Rules = append(input.Rules, model.SpecifyDateShift{
				Employee: employee,
				Date:     model.Date(2025, time.April, 10+d),
				Shift:    model.ShiftDay,
				Hard:     true,
			})
		}
		return input
	}

	_, result := compileAndSolve(t, pinTwoDays(baseInput(), "aiko"))
	assert.True(t, result.Status.HasSolution(),
		"employee-specific cap overrides the group cap for aiko")

	_, result = compileAndSolve(t, pinTwoDays(baseInput(), "noor"))
	assert.Equal(t, solver.StatusInfeasible, result.Status,
		"noor stays under the group cap")
}

func TestCompileDefaultConsecutiveWorkCap(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 6),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftDay,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     false,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	working := 0
	for d := 0; d < 6; d++ {
		if compiled.ShiftAt(result.Values, 0, d).IsWorking() {
			working++
		}
	}
	assert.Equal(t, 5, working, "the default cap of four forces one rest day in six")
	assert.EqualValues(t, 100, result.Objective)
}

func TestCompileZeroOffCapForcesEveryoneToWork(t *testing.T) {
	// A zero cap on consecutive off days leaves no room to rest, so every
	// active employee works the whole period.
	input := Input{
		Calendar: testCalendar(t, 4),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
			{ID: "noor", EmploymentType: model.EmploymentPartTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.MaxConsecutiveOff{On: model.GroupTarget(model.GroupAll), MaxDays: 0, Hard: true},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	for e := 0; e < 2; e++ {
		for d := 0; d < 4; d++ {
			assert.True(t, compiled.ShiftAt(result.Values, e, d).IsWorking(),
				"employee %d must work day %d", e, d)
		}
	}
}

func TestCompileZeroOffCapConflictsWithDefaultWorkCap(t *testing.T) {
	// Working all five days would breach the default four-day
	// consecutive-work cap, which applies whenever no explicit work rule
	// covers the employee.
	input := Input{
		Calendar: testCalendar(t, 5),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.MaxConsecutiveOff{On: model.GroupTarget(model.GroupAll), MaxDays: 0, Hard: true},
		},
	}

	_, result := compileAndSolve(t, input)

	assert.Equal(t, solver.StatusInfeasible, result.Status)
}

func TestCompileConsecutiveOffCarriesHistory(t *testing.T) {
	// Two rest days carried in plus an off cap of two force work on the
	// first period day.
	input := Input{
		Calendar: testCalendar(t, 3),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		History: model.History{"aiko": {model.ShiftOff, model.ShiftOff}},
		Rules: []model.Rule{
			model.MaxConsecutiveOff{On: model.EmployeeTarget("aiko"), MaxDays: 2, Hard: true},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	assert.True(t, compiled.ShiftAt(result.Values, 0, 0).IsWorking())
}

func TestCompileTotalShiftCount(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 4),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.TotalShiftCount{
				Employee: "aiko",
				Shifts:   []model.ShiftCode{model.ShiftDay},
				Min:      intRef(2),
				Max:      intRef(2),
				Hard:     true,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	count := 0
	for d := 0; d < 4; d++ {
		if compiled.ShiftAt(result.Values, 0, d) == model.ShiftDay {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestCompileSimultaneousNightCoverageIsInfeasible(t *testing.T) {
	// Two nurses, one day, coverage wants two on night duty but a hard
	// pairing rule forbids them sharing it.
	input := Input{
		Calendar: testCalendar(t, 1),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
			{ID: "noor", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftNight,
				DateType: model.DateTypeAll,
				MinCount: 2,
				Hard:     true,
			},
			model.ForbidSimultaneousShift{Employee: "aiko", Employee2: "noor", Shift: model.ShiftNight},
		},
	}

	_, result := compileAndSolve(t, input)

	assert.Equal(t, solver.StatusInfeasible, result.Status)
}

func TestCompileUnitScopedStaffing(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 1),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Unit: "1F", Status: model.StatusActive},
			{ID: "noor", EmploymentType: model.EmploymentFullTime, Unit: "2F", Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Unit:     "1F",
				Shift:    model.ShiftDay,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     true,
			},
			model.ForbidShift{Employee: "noor", Shift: model.ShiftDay},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	assert.Equal(t, model.ShiftDay, compiled.ShiftAt(result.Values, 0, 0))
	assert.NotEqual(t, model.ShiftDay, compiled.ShiftAt(result.Values, 1, 0))
}

func TestCompileMinRoleOnDuty(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 1),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Role: "manager", Status: model.StatusActive},
			{ID: "noor", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.MinRoleOnDuty{Role: "manager", DateType: model.DateTypeAll, MinCount: 1, Hard: true},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.True(t, result.Status.HasSolution(), result.Status)
	assert.True(t, compiled.ShiftAt(result.Values, 0, 0).IsWorking())
}

func TestCompileBalanceOffDays(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 4),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
			{ID: "noor", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftDay,
				DateType: model.DateTypeAll,
				MinCount: 1,
				MaxCount: intRef(1),
				Hard:     true,
			},
			model.BalanceOffDays{Group: model.GroupAll, Weight: 1},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.EqualValues(t, 0, result.Objective, "four days split evenly between two employees")

	offA, offB := 0, 0
	for d := 0; d < 4; d++ {
		if compiled.ShiftAt(result.Values, 0, d).IsOff() {
			offA++
		}
		if compiled.ShiftAt(result.Values, 1, d).IsOff() {
			offB++
		}
	}
	assert.Equal(t, offA, offB)
}

func TestCompileSoftRequestContributesPenalty(t *testing.T) {
	input := Input{
		Calendar: testCalendar(t, 1),
		Employees: []model.Employee{
			{ID: "aiko", EmploymentType: model.EmploymentFullTime, Status: model.StatusActive},
		},
		Rules: []model.Rule{
			model.SpecifyDateShift{
				Employee: "aiko",
				Date:     model.Date(2025, time.April, 10),
				Shift:    model.ShiftOff,
				Hard:     false,
			},
			model.RequiredStaffing{
				Group:    model.GroupAll,
				Shift:    model.ShiftDay,
				DateType: model.DateTypeAll,
				MinCount: 1,
				Hard:     true,
			},
		},
	}

	compiled, result := compileAndSolve(t, input)

	require.Equal(t, solver.StatusOptimal, result.Status)
	assert.Equal(t, model.ShiftDay, compiled.ShiftAt(result.Values, 0, 0),
		"hard coverage outranks the soft request")
	assert.EqualValues(t, 1, result.Objective, "the unmet request costs its preference weight")
	assert.NotEmpty(t, compiled.Penalties)
}

// Package rules validates and normalizes the raw roster rules produced by
// extraction or manual entry, turning each one into a typed rule or an
// actionable rejection reason.
package rules

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

// Verdict classifies the outcome of validating a single raw rule.
type Verdict string

const (
	// VerdictValid means the rule passed every check and carries a typed form.
	VerdictValid Verdict = "VALID"
	// VerdictInvalid means the rule is structurally broken and must be dropped.
	VerdictInvalid Verdict = "INVALID"
	// VerdictUnparsable means extraction flagged the source text as
	// unintelligible. The rule is excluded from compilation but kept for
	// reporting.
	VerdictUnparsable Verdict = "UNPARSABLE"
)

// Outcome pairs a raw rule with its verdict. Rule is set only for
// VerdictValid, Reason only for VerdictInvalid.
type Outcome struct {
	Raw     model.RawRule
	Verdict Verdict
	Rule    model.Rule
	Reason  string
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(validate.RegisterValidation("shiftcode", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseShiftCode(fl.Field().String())
		return ok
	}))
	must(validate.RegisterValidation("datetype", func(fl validator.FieldLevel) bool {
		return model.KnownDateType(fl.Field().String())
	}))
}

// Validate checks a single raw rule against the active period and, when it
// passes, normalizes it into its typed form. It never returns an error: a
// broken rule becomes an Outcome with VerdictInvalid and a reason.
func Validate(raw model.RawRule, period model.Period) Outcome {
	if raw.RuleType == string(model.RuleUnparsable) {
		return Outcome{Raw: raw, Verdict: VerdictUnparsable}
	}

	builder, ok := builders[model.RuleType(raw.RuleType)]
	if !ok {
		return invalid(raw, fmt.Sprintf("unknown rule type %q", raw.RuleType))
	}

	target, reason := resolveTarget(raw)
	if reason != "" {
		return invalid(raw, reason)
	}

	rule, err := builder(raw, target, period)
	if err != nil {
		return invalid(raw, err.Error())
	}
	return Outcome{Raw: raw, Verdict: VerdictValid, Rule: rule}
}

// ValidateAll validates a batch of raw rules, logging every drop so that
// operators can trace which instructions never reached the model.
func ValidateAll(raws []model.RawRule, period model.Period, logger *zap.Logger) []Outcome {
	outcomes := make([]Outcome, 0, len(raws))
	for _, raw := range raws {
		outcome := Validate(raw, period)
		switch outcome.Verdict {
		case VerdictInvalid:
			logger.Warn("dropping invalid rule",
				zap.String("rule", model.DescribeRaw(raw)),
				zap.String("reason", outcome.Reason),
			)
		case VerdictUnparsable:
			logger.Info("rule text could not be interpreted",
				zap.String("rule", model.DescribeRaw(raw)),
				zap.String("sourceReason", raw.Reason),
			)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// ValidRules extracts the typed rules from a batch of outcomes, preserving
// input order.
func ValidRules(outcomes []Outcome) []model.Rule {
	typed := make([]model.Rule, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Verdict == VerdictValid {
			typed = append(typed, outcome.Rule)
		}
	}
	return typed
}

func invalid(raw model.RawRule, reason string) Outcome {
	return Outcome{Raw: raw, Verdict: VerdictInvalid, Reason: reason}
}

// resolveTarget works out who a raw rule applies to. A rule naming nobody
// gets an empty target, which group-scoped builders widen to the whole
// facility.
func resolveTarget(raw model.RawRule) (model.Target, string) {
	employee := raw.Employee
	if employee == "" {
		employee = raw.Employee1
	}
	switch {
	case employee != "" && raw.Employee2 != "":
		if employee == raw.Employee2 {
			return model.Target{}, "employee1 and employee2 must differ"
		}
		return model.PairTarget(employee, raw.Employee2), ""
	case employee != "":
		return model.EmployeeTarget(employee), ""
	case raw.EmployeeGroup != "":
		return model.GroupTarget(raw.EmployeeGroup), ""
	}
	return model.Target{}, ""
}

func emptyTarget(t model.Target) bool {
	return t.Employee == "" && t.Employee2 == "" && t.Group == ""
}

func isHard(raw model.RawRule) bool {
	if raw.IsHard == nil {
		return true
	}
	return *raw.IsHard
}

type builderFunc func(raw model.RawRule, target model.Target, period model.Period) (model.Rule, error)

var builders = map[model.RuleType]builderFunc{
	model.RuleSpecifyDateShift:        buildSpecifyDateShift,
	model.RuleForbidShift:             buildForbidShift,
	model.RuleAllowOnlyShifts:         buildAllowOnlyShifts,
	model.RuleMaxConsecutiveWork:      buildMaxConsecutiveWork,
	model.RuleMaxConsecutiveOff:       buildMaxConsecutiveOff,
	model.RuleTotalShiftCount:         buildTotalShiftCount,
	model.RuleMinTotalShiftDays:       buildMinTotalShiftDays,
	model.RuleForbidSimultaneousShift: buildForbidSimultaneous,
	model.RuleForbidShiftSequence:     buildForbidShiftSequence,
	model.RuleEnforceShiftSequence:    buildEnforceShiftSequence,
	model.RuleRequiredStaffing:        buildRequiredStaffing,
	model.RuleMinRoleOnDuty:           buildMinRoleOnDuty,
	model.RuleBalanceOffDays:          buildBalanceOffDays,
}

func requireEmployee(target model.Target, ruleType model.RuleType) (string, error) {
	if emptyTarget(target) || target.Kind() != model.TargetEmployee {
		return "", fmt.Errorf("%s requires a single employee target, got %q", ruleType, target)
	}
	return target.Employee, nil
}

func groupOrDefault(target model.Target) (string, error) {
	if emptyTarget(target) {
		return model.GroupAll, nil
	}
	if target.Kind() != model.TargetGroup {
		return "", fmt.Errorf("rule applies to groups, got target %q", target)
	}
	return target.Group, nil
}

func checkFields(fields any) error {
	err := validate.Struct(fields)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		parts = append(parts, fmt.Sprintf("field %s failed %q check", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}

func parseShift(symbol string) (model.ShiftCode, error) {
	code, ok := model.ParseShiftCode(symbol)
	if !ok {
		return 0, fmt.Errorf("unknown shift %q", symbol)
	}
	return code, nil
}

func parseShiftSet(symbols []string) ([]model.ShiftCode, error) {
	seen := map[model.ShiftCode]bool{}
	codes := make([]model.ShiftCode, 0, len(symbols))
	for _, symbol := range symbols {
		code, err := parseShift(symbol)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes, nil
}

// firstBound picks the first bound a record supplies. The extraction
// service has emitted both min/max and min_count/max_count spellings over
// time, so both are accepted.
func firstBound(primary, fallback *int) *int {
	if primary != nil {
		return primary
	}
	return fallback
}

func buildSpecifyDateShift(raw model.RawRule, target model.Target, period model.Period) (model.Rule, error) {
	employee, err := requireEmployee(target, model.RuleSpecifyDateShift)
	if err != nil {
		return nil, err
	}
	fields := struct {
		Date  string `validate:"required"`
		Shift string `validate:"required,shiftcode"`
	}{raw.Date, raw.Shift}
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	date, err := ResolveDate(raw.Date, period)
	if err != nil {
		return nil, err
	}
	shift, err := parseShift(raw.Shift)
	if err != nil {
		return nil, err
	}
	return model.SpecifyDateShift{Employee: employee, Date: date, Shift: shift, Hard: isHard(raw)}, nil
}

func buildForbidShift(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	employee, err := requireEmployee(target, model.RuleForbidShift)
	if err != nil {
		return nil, err
	}
	shift, err := parseShift(raw.Shift)
	if err != nil {
		return nil, err
	}
	return model.ForbidShift{Employee: employee, Shift: shift}, nil
}

func buildAllowOnlyShifts(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	employee, err := requireEmployee(target, model.RuleAllowOnlyShifts)
	if err != nil {
		return nil, err
	}
	fields := struct {
		AllowedShifts []string `validate:"required,min=1,dive,shiftcode"`
	}{raw.AllowedShifts}
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	codes, err := parseShiftSet(raw.AllowedShifts)
	if err != nil {
		return nil, err
	}
	// Leave codes are driven by employment status, not allow-lists.
	allowed := codes[:0]
	for _, code := range codes {
		if !code.IsLeave() {
			allowed = append(allowed, code)
		}
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("allowed shift list %v contains no assignable shifts", raw.AllowedShifts)
	}
	return model.AllowOnlyShifts{Employee: employee, Allowed: allowed}, nil
}

func maxDaysOf(raw model.RawRule) (int, error) {
	fields := struct {
		MaxDays *int `validate:"required,min=0"`
	}{raw.MaxDays}
	if err := checkFields(fields); err != nil {
		return 0, err
	}
	return *raw.MaxDays, nil
}

func consecutiveTarget(target model.Target) (model.Target, error) {
	if emptyTarget(target) || target.Kind() == model.TargetPair {
		return model.Target{}, fmt.Errorf("consecutive-day rules require an employee or group target, got %q", target)
	}
	return target, nil
}

func buildMaxConsecutiveWork(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	on, err := consecutiveTarget(target)
	if err != nil {
		return nil, err
	}
	days, err := maxDaysOf(raw)
	if err != nil {
		return nil, err
	}
	return model.MaxConsecutiveWork{On: on, MaxDays: days, Hard: isHard(raw)}, nil
}

func buildMaxConsecutiveOff(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	on, err := consecutiveTarget(target)
	if err != nil {
		return nil, err
	}
	days, err := maxDaysOf(raw)
	if err != nil {
		return nil, err
	}
	return model.MaxConsecutiveOff{On: on, MaxDays: days, Hard: isHard(raw)}, nil
}

func buildTotalShiftCount(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	employee, err := requireEmployee(target, model.RuleTotalShiftCount)
	if err != nil {
		return nil, err
	}
	minBound := firstBound(raw.Min, raw.MinCount)
	maxBound := firstBound(raw.Max, raw.MaxCount)
	fields := struct {
		Shifts []string `validate:"required,min=1,dive,shiftcode"`
		Min    *int     `validate:"omitempty,min=0"`
		Max    *int     `validate:"omitempty,min=0"`
	}{raw.Shifts, minBound, maxBound}
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if minBound == nil && maxBound == nil {
		return nil, errors.New("total shift count rule needs at least one of min and max")
	}
	if minBound != nil && maxBound != nil && *minBound > *maxBound {
		return nil, fmt.Errorf("min %d exceeds max %d", *minBound, *maxBound)
	}
	codes, err := parseShiftSet(raw.Shifts)
	if err != nil {
		return nil, err
	}
	return model.TotalShiftCount{Employee: employee, Shifts: codes, Min: minBound, Max: maxBound, Hard: isHard(raw)}, nil
}

func buildMinTotalShiftDays(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	group, err := groupOrDefault(target)
	if err != nil {
		return nil, err
	}
	fields := struct {
		Shift    string `validate:"required,shiftcode"`
		MinCount *int   `validate:"required,min=0"`
	}{raw.Shift, raw.MinCount}
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	shift, err := parseShift(raw.Shift)
	if err != nil {
		return nil, err
	}
	return model.MinTotalShiftDays{Group: group, Shift: shift, MinCount: *raw.MinCount, Hard: isHard(raw)}, nil
}

func buildForbidSimultaneous(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	if emptyTarget(target) || target.Kind() != model.TargetPair {
		return nil, fmt.Errorf("simultaneous-shift rules require two employees, got %q", target)
	}
	shift, err := parseShift(raw.Shift)
	if err != nil {
		return nil, err
	}
	return model.ForbidSimultaneousShift{
		Employee:  target.Employee,
		Employee2: target.Employee2,
		Shift:     shift,
	}, nil
}

func sequenceShifts(raw model.RawRule) (model.ShiftCode, model.ShiftCode, error) {
	fields := struct {
		PrecedingShift  string `validate:"required,shiftcode"`
		SubsequentShift string `validate:"required,shiftcode"`
	}{raw.PrecedingShift, raw.SubsequentShift}
	if err := checkFields(fields); err != nil {
		return 0, 0, err
	}
	preceding, err := parseShift(raw.PrecedingShift)
	if err != nil {
		return 0, 0, err
	}
	subsequent, err := parseShift(raw.SubsequentShift)
	if err != nil {
		return 0, 0, err
	}
	return preceding, subsequent, nil
}

func sequenceTarget(target model.Target) (model.Target, error) {
	if emptyTarget(target) {
		return model.GroupTarget(model.GroupAll), nil
	}
	if target.Kind() == model.TargetPair {
		return model.Target{}, fmt.Errorf("sequence rules require an employee or group target, got %q", target)
	}
	return target, nil
}

func buildForbidShiftSequence(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	on, err := sequenceTarget(target)
	if err != nil {
		return nil, err
	}
	preceding, subsequent, err := sequenceShifts(raw)
	if err != nil {
		return nil, err
	}
	return model.ForbidShiftSequence{On: on, Preceding: preceding, Subsequent: subsequent, Hard: isHard(raw)}, nil
}

func buildEnforceShiftSequence(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	on, err := sequenceTarget(target)
	if err != nil {
		return nil, err
	}
	preceding, subsequent, err := sequenceShifts(raw)
	if err != nil {
		return nil, err
	}
	return model.EnforceShiftSequence{On: on, Preceding: preceding, Subsequent: subsequent, Hard: isHard(raw)}, nil
}

func buildRequiredStaffing(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	group, err := groupOrDefault(target)
	if err != nil {
		return nil, err
	}
	dateType := raw.DateType
	if dateType == "" {
		dateType = model.DateTypeAll
	}
	minBound := firstBound(raw.MinCount, raw.Min)
	maxBound := firstBound(raw.MaxCount, raw.Max)
	fields := struct {
		Shift    string `validate:"required,shiftcode"`
		DateType string `validate:"required,datetype"`
		MinCount *int   `validate:"required,min=0"`
		MaxCount *int   `validate:"omitempty,min=0"`
	}{raw.Shift, dateType, minBound, maxBound}
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if maxBound != nil && *minBound > *maxBound {
		return nil, fmt.Errorf("min_count %d exceeds max_count %d", *minBound, *maxBound)
	}
	shift, err := parseShift(raw.Shift)
	if err != nil {
		return nil, err
	}
	return model.RequiredStaffing{
		Group:    group,
		Unit:     raw.Unit,
		Shift:    shift,
		DateType: dateType,
		MinCount: *minBound,
		MaxCount: maxBound,
		Hard:     isHard(raw),
	}, nil
}

func buildMinRoleOnDuty(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	if target.Kind() == model.TargetPair {
		return nil, fmt.Errorf("role-coverage rules take at most a group target, got %q", target)
	}
	dateType := raw.DateType
	if dateType == "" {
		dateType = model.DateTypeAll
	}
	fields := struct {
		Role     string `validate:"required"`
		DateType string `validate:"required,datetype"`
		MinCount *int   `validate:"required,min=0"`
	}{raw.Role, dateType, raw.MinCount}
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	return model.MinRoleOnDuty{Role: raw.Role, DateType: dateType, MinCount: *raw.MinCount, Hard: isHard(raw)}, nil
}

func buildBalanceOffDays(raw model.RawRule, target model.Target, _ model.Period) (model.Rule, error) {
	group, err := groupOrDefault(target)
	if err != nil {
		return nil, err
	}
	weight := 1.0
	if raw.Weight != nil {
		if *raw.Weight < 0 {
			return nil, fmt.Errorf("weight %v must not be negative", *raw.Weight)
		}
		weight = *raw.Weight
	}
	return model.BalanceOffDays{Group: group, Weight: weight}, nil
}

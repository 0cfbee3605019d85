package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuleType discriminates the raw rule record.
type RuleType string

const (
	RuleSpecifyDateShift        RuleType = "SPECIFY_DATE_SHIFT"
	RuleForbidShift             RuleType = "FORBID_SHIFT"
	RuleAllowOnlyShifts         RuleType = "ALLOW_ONLY_SHIFTS"
	RuleMaxConsecutiveWork      RuleType = "MAX_CONSECUTIVE_WORK"
	RuleMaxConsecutiveOff       RuleType = "MAX_CONSECUTIVE_OFF"
	RuleTotalShiftCount         RuleType = "TOTAL_SHIFT_COUNT"
	RuleMinTotalShiftDays       RuleType = "MIN_TOTAL_SHIFT_DAYS"
	RuleForbidSimultaneousShift RuleType = "FORBID_SIMULTANEOUS_SHIFT"
	RuleForbidShiftSequence     RuleType = "FORBID_SHIFT_SEQUENCE"
	RuleEnforceShiftSequence    RuleType = "ENFORCE_SHIFT_SEQUENCE"
	RuleRequiredStaffing        RuleType = "REQUIRED_STAFFING"
	RuleMinRoleOnDuty           RuleType = "MIN_ROLE_ON_DUTY"
	RuleBalanceOffDays          RuleType = "BALANCE_OFF_DAYS"

	// RuleUnparsable marks a record the extraction service could not
	// interpret. It passes through validation unevaluated for audit
	// visibility and is never compiled.
	RuleUnparsable RuleType = "UNPARSABLE"
)

// RawRule is the wire shape of a declarative rule record, as produced by
// the extraction service or stored in the rule store. Only the fields
// selected by RuleType are meaningful.
type RawRule struct {
	RuleType      string   `json:"rule_type" yaml:"rule_type"`
	Employee      string   `json:"employee,omitempty" yaml:"employee,omitempty"`
	Employee1     string   `json:"employee1,omitempty" yaml:"employee1,omitempty"`
	Employee2     string   `json:"employee2,omitempty" yaml:"employee2,omitempty"`
	EmployeeGroup string   `json:"employee_group,omitempty" yaml:"employee_group,omitempty"`
	IsHard        *bool    `json:"is_hard,omitempty" yaml:"is_hard,omitempty"`
	Date          string   `json:"date,omitempty" yaml:"date,omitempty"`
	Shift         string   `json:"shift,omitempty" yaml:"shift,omitempty"`
	Shifts        []string `json:"shifts,omitempty" yaml:"shifts,omitempty"`
	AllowedShifts []string `json:"allowed_shifts,omitempty" yaml:"allowed_shifts,omitempty"`
	MaxDays       *int     `json:"max_days,omitempty" yaml:"max_days,omitempty"`
	Min           *int     `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *int     `json:"max,omitempty" yaml:"max,omitempty"`
	MinCount      *int     `json:"min_count,omitempty" yaml:"min_count,omitempty"`
	MaxCount      *int     `json:"max_count,omitempty" yaml:"max_count,omitempty"`
	PrecedingShift  string `json:"preceding_shift,omitempty" yaml:"preceding_shift,omitempty"`
	SubsequentShift string `json:"subsequent_shift,omitempty" yaml:"subsequent_shift,omitempty"`
	DateType      string   `json:"date_type,omitempty" yaml:"date_type,omitempty"`
	Role          string   `json:"role,omitempty" yaml:"role,omitempty"`
	Unit          string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Weight        *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Reason        string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// TargetKind classifies what a rule applies to.
type TargetKind int

const (
	TargetEmployee TargetKind = iota
	TargetPair
	TargetGroup
)

// Target is a rule's resolved target specifier: a single employee, an
// employee pair, or a group specifier.
type Target struct {
	Employee  string
	Employee2 string
	Group     string
}

// EmployeeTarget targets a single employee.
func EmployeeTarget(id string) Target { return Target{Employee: id} }

// PairTarget targets a pair of employees. The pair is canonicalized so the
// same two employees always produce the same target, whichever way round
// the rule named them.
func PairTarget(a, b string) Target {
	if b < a {
		a, b = b, a
	}
	return Target{Employee: a, Employee2: b}
}

// GroupTarget targets a group specifier.
func GroupTarget(group string) Target { return Target{Group: group} }

// Kind returns the target classification.
func (t Target) Kind() TargetKind {
	switch {
	case t.Group != "":
		return TargetGroup
	case t.Employee2 != "":
		return TargetPair
	default:
		return TargetEmployee
	}
}

func (t Target) String() string {
	switch t.Kind() {
	case TargetGroup:
		return "group:" + t.Group
	case TargetPair:
		return "pair:" + t.Employee + "+" + t.Employee2
	default:
		return "emp:" + t.Employee
	}
}

// Rule is the validated, canonical form of a rule record: a closed variant
// set with one concrete type per rule_type. The compiler walks rules with
// an exhaustive type switch, so adding a type here surfaces every place
// that must learn about it.
type Rule interface {
	Type() RuleType
	// Target is the employee, pair, or group the rule applies to.
	Target() Target
	// Key is the canonical identity used to detect duplicate applications:
	// rule type, target, and the discriminating parameters.
	Key() string

	isRule()
}

// SpecifyDateShift pins (hard) or prefers (soft) a shift on one date.
type SpecifyDateShift struct {
	Employee string
	Date     time.Time
	Shift    ShiftCode
	Hard     bool
}

// ForbidShift excludes one code on every day for an employee.
type ForbidShift struct {
	Employee string
	Shift    ShiftCode
}

// AllowOnlyShifts restricts an employee to the listed codes. Leave codes
// are governed by status pinning, not by allow-lists.
type AllowOnlyShifts struct {
	Employee string
	Allowed  []ShiftCode
}

// MaxConsecutiveWork caps consecutive working-partition days over a
// sliding window, folding in the run carried over from history.
type MaxConsecutiveWork struct {
	On      Target
	MaxDays int
	Hard    bool
}

// MaxConsecutiveOff is the off-partition counterpart of MaxConsecutiveWork.
type MaxConsecutiveOff struct {
	On      Target
	MaxDays int
	Hard    bool
}

// TotalShiftCount bounds how many period days an employee spends on any of
// the target codes. At least one bound is always present.
type TotalShiftCount struct {
	Employee string
	Shifts   []ShiftCode
	Min      *int
	Max      *int
	Hard     bool
}

// MinTotalShiftDays requires a minimum number of days on one code for every
// member of a group.
type MinTotalShiftDays struct {
	Group    string
	Shift    ShiftCode
	MinCount int
	Hard     bool
}

// ForbidSimultaneousShift forbids two employees sharing one code on the
// same day.
type ForbidSimultaneousShift struct {
	Employee  string
	Employee2 string
	Shift     ShiftCode
}

// ForbidShiftSequence disallows the subsequent code on the day after the
// preceding code.
type ForbidShiftSequence struct {
	On         Target
	Preceding  ShiftCode
	Subsequent ShiftCode
	Hard       bool
}

// EnforceShiftSequence requires the subsequent code on the day after the
// preceding code.
type EnforceShiftSequence struct {
	On         Target
	Preceding  ShiftCode
	Subsequent ShiftCode
	Hard       bool
}

// RequiredStaffing requires a number of staff on one code across the days
// the date-type matcher selects, optionally scoped to a unit.
type RequiredStaffing struct {
	Group    string
	Unit     string
	Shift    ShiftCode
	DateType string
	MinCount int
	MaxCount *int
	Hard     bool
}

// MinRoleOnDuty requires a minimum number of role holders on a working
// code across the days the date-type matcher selects.
type MinRoleOnDuty struct {
	Role     string
	DateType string
	MinCount int
	Hard     bool
}

// BalanceOffDays penalizes the spread between the most and least rested
// members of a group, scaled by the rule's weight.
type BalanceOffDays struct {
	Group  string
	Weight float64
}

func (SpecifyDateShift) isRule()        {}
func (ForbidShift) isRule()             {}
func (AllowOnlyShifts) isRule()         {}
func (MaxConsecutiveWork) isRule()      {}
func (MaxConsecutiveOff) isRule()       {}
func (TotalShiftCount) isRule()         {}
func (MinTotalShiftDays) isRule()       {}
func (ForbidSimultaneousShift) isRule() {}
func (ForbidShiftSequence) isRule()     {}
func (EnforceShiftSequence) isRule()    {}
func (RequiredStaffing) isRule()        {}
func (MinRoleOnDuty) isRule()           {}
func (BalanceOffDays) isRule()          {}

func (r SpecifyDateShift) Type() RuleType        { return RuleSpecifyDateShift }
func (r ForbidShift) Type() RuleType             { return RuleForbidShift }
func (r AllowOnlyShifts) Type() RuleType         { return RuleAllowOnlyShifts }
func (r MaxConsecutiveWork) Type() RuleType      { return RuleMaxConsecutiveWork }
func (r MaxConsecutiveOff) Type() RuleType       { return RuleMaxConsecutiveOff }
func (r TotalShiftCount) Type() RuleType         { return RuleTotalShiftCount }
func (r MinTotalShiftDays) Type() RuleType       { return RuleMinTotalShiftDays }
func (r ForbidSimultaneousShift) Type() RuleType { return RuleForbidSimultaneousShift }
func (r ForbidShiftSequence) Type() RuleType     { return RuleForbidShiftSequence }
func (r EnforceShiftSequence) Type() RuleType    { return RuleEnforceShiftSequence }
func (r RequiredStaffing) Type() RuleType        { return RuleRequiredStaffing }
func (r MinRoleOnDuty) Type() RuleType           { return RuleMinRoleOnDuty }
func (r BalanceOffDays) Type() RuleType          { return RuleBalanceOffDays }

func (r SpecifyDateShift) Target() Target { return EmployeeTarget(r.Employee) }
func (r ForbidShift) Target() Target      { return EmployeeTarget(r.Employee) }
func (r AllowOnlyShifts) Target() Target  { return EmployeeTarget(r.Employee) }
func (r MaxConsecutiveWork) Target() Target { return r.On }
func (r MaxConsecutiveOff) Target() Target  { return r.On }
func (r TotalShiftCount) Target() Target  { return EmployeeTarget(r.Employee) }
func (r MinTotalShiftDays) Target() Target { return GroupTarget(r.Group) }
func (r ForbidSimultaneousShift) Target() Target {
	return PairTarget(r.Employee, r.Employee2)
}
func (r ForbidShiftSequence) Target() Target  { return r.On }
func (r EnforceShiftSequence) Target() Target { return r.On }
func (r RequiredStaffing) Target() Target     { return GroupTarget(r.Group) }
func (r MinRoleOnDuty) Target() Target        { return GroupTarget(r.Role) }
func (r BalanceOffDays) Target() Target       { return GroupTarget(r.Group) }

func (r SpecifyDateShift) Key() string {
	return ruleKey(r, r.Date.Format("2006-01-02"), r.Shift.String())
}

func (r ForbidShift) Key() string { return ruleKey(r, r.Shift.String()) }

func (r AllowOnlyShifts) Key() string { return ruleKey(r) }

func (r MaxConsecutiveWork) Key() string { return ruleKey(r) }

func (r MaxConsecutiveOff) Key() string { return ruleKey(r) }

func (r TotalShiftCount) Key() string {
	return ruleKey(r, shiftSetKey(r.Shifts))
}

func (r MinTotalShiftDays) Key() string { return ruleKey(r, r.Shift.String()) }

func (r ForbidSimultaneousShift) Key() string { return ruleKey(r, r.Shift.String()) }

func (r ForbidShiftSequence) Key() string {
	return ruleKey(r, r.Preceding.String(), r.Subsequent.String())
}

func (r EnforceShiftSequence) Key() string {
	return ruleKey(r, r.Preceding.String(), r.Subsequent.String())
}

func (r RequiredStaffing) Key() string {
	return ruleKey(r, r.Unit, r.Shift.String(), r.DateType)
}

func (r MinRoleOnDuty) Key() string { return ruleKey(r, r.DateType) }

func (r BalanceOffDays) Key() string { return ruleKey(r) }

func ruleKey(r Rule, params ...string) string {
	parts := append([]string{string(r.Type()), r.Target().String()}, params...)
	return strings.Join(parts, "|")
}

func shiftSetKey(codes []ShiftCode) string {
	symbols := make([]string, 0, len(codes))
	for _, c := range codes {
		symbols = append(symbols, c.String())
	}
	sort.Strings(symbols)
	return strings.Join(symbols, ",")
}

// DescribeRaw renders a short identity for a raw record in log messages.
func DescribeRaw(raw RawRule) string {
	target := raw.Employee
	if target == "" {
		target = raw.Employee1
	}
	if target == "" {
		target = raw.EmployeeGroup
	}
	return fmt.Sprintf("%s(%s)", raw.RuleType, target)
}

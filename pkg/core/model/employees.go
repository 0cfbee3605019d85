package model

// EmploymentType distinguishes the contract classes a group specifier can
// address.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "full_time"
	EmploymentPartTime EmploymentType = "part_time"
)

// EmployeeStatus is the employee's current standing. Employees on a leave
// status are pinned to the leave shift for the whole period and excluded
// from rule application.
type EmployeeStatus string

const (
	StatusActive        EmployeeStatus = "active"
	StatusParentalLeave EmployeeStatus = "parental_leave"
	StatusSickLeave     EmployeeStatus = "sick_leave"
)

// Well-known group specifiers. Anything else is treated as an exact role
// name match.
const (
	GroupAll      = "ALL"
	GroupFullTime = "FULL_TIME"
	GroupPartTime = "PART_TIME"
)

// Employee is the immutable roster entry for one member of staff.
type Employee struct {
	ID             string
	Name           string
	EmploymentType EmploymentType
	Role           string // empty when the employee holds no role
	Unit           string // floor or unit assignment, e.g. "1F"
	Status         EmployeeStatus
}

// OnLeave reports whether the employee has a fixed leave status.
func (e Employee) OnLeave() bool {
	return e.Status == StatusParentalLeave || e.Status == StatusSickLeave
}

// LeaveShift returns the shift code an on-leave employee is pinned to.
// The second return value is false for active employees.
func (e Employee) LeaveShift() (ShiftCode, bool) {
	if e.OnLeave() {
		return ShiftLeave, true
	}
	return 0, false
}

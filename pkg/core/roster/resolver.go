package roster

import (
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

// Resolver maps rule targets onto employee indexes. Employees with a fixed
// leave status are invisible to it: their whole period is pinned, so no
// rule may reach them.
type Resolver struct {
	employees []model.Employee
	byID      map[string]int
	logger    *zap.Logger
}

// NewResolver indexes the employee roster for target resolution.
func NewResolver(employees []model.Employee, logger *zap.Logger) *Resolver {
	byID := make(map[string]int, len(employees))
	for i, e := range employees {
		byID[e.ID] = i
	}
	return &Resolver{employees: employees, byID: byID, logger: logger}
}

// Employee resolves a single employee ID to its roster index. Unknown and
// on-leave employees resolve to false.
func (r *Resolver) Employee(id string) (int, bool) {
	i, ok := r.byID[id]
	if !ok {
		r.logger.Warn("rule names unknown employee", zap.String("employee", id))
		return 0, false
	}
	if r.employees[i].OnLeave() {
		r.logger.Warn("rule names employee on leave",
			zap.String("employee", id),
			zap.String("status", string(r.employees[i].Status)),
		)
		return 0, false
	}
	return i, true
}

// Group resolves a group specifier to the indexes of its active members.
// ALL, FULL_TIME, and PART_TIME select by contract class; any other
// specifier selects by exact role name. Unknown specifiers therefore
// resolve to an empty group, which is logged and otherwise harmless.
func (r *Resolver) Group(group string) []int {
	var members []int
	for i, e := range r.employees {
		if e.OnLeave() {
			continue
		}
		switch group {
		case model.GroupAll:
			members = append(members, i)
		case model.GroupFullTime:
			if e.EmploymentType == model.EmploymentFullTime {
				members = append(members, i)
			}
		case model.GroupPartTime:
			if e.EmploymentType == model.EmploymentPartTime {
				members = append(members, i)
			}
		default:
			if e.Role == group {
				members = append(members, i)
			}
		}
	}
	if len(members) == 0 {
		r.logger.Warn("group resolved to no employees", zap.String("group", group))
	}
	return members
}

// Target resolves any target to member indexes: one for an employee, two
// for a pair, the member set for a group.
func (r *Resolver) Target(t model.Target) []int {
	switch t.Kind() {
	case model.TargetGroup:
		return r.Group(t.Group)
	case model.TargetPair:
		first, ok1 := r.Employee(t.Employee)
		second, ok2 := r.Employee(t.Employee2)
		if !ok1 || !ok2 {
			return nil
		}
		return []int{first, second}
	default:
		i, ok := r.Employee(t.Employee)
		if !ok {
			return nil
		}
		return []int{i}
	}
}

package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

func rosterEmployees() []model.Employee {
	return []model.Employee{
		{ID: "aiko", EmploymentType: model.EmploymentFullTime, Role: "nurse", Status: model.StatusActive},
		{ID: "noor", EmploymentType: model.EmploymentPartTime, Status: model.StatusActive},
		{ID: "维达", EmploymentType: model.EmploymentFullTime, Role: "manager", Status: model.StatusActive},
		{ID: "sam", EmploymentType: model.EmploymentFullTime, Role: "nurse", Status: model.StatusParentalLeave},
	}
}

func TestResolverGroups(t *testing.T) {
	r := NewResolver(rosterEmployees(), zap.NewNop())

	tests := []struct {
		name  string
		group string
		want  []int
	}{
		{name: "all excludes employees on leave", group: model.GroupAll, want: []int{0, 1, 2}},
		{name: "full time", group: model.GroupFullTime, want: []int{0, 2}},
		{name: "part time", group: model.GroupPartTime, want: []int{1}},
		{name: "role name", group: "nurse", want: []int{0}},
		{name: "unknown specifier is empty", group: "night_owls", want: nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, r.Group(test.group))
		})
	}
}

func TestResolverEmployee(t *testing.T) {
	r := NewResolver(rosterEmployees(), zap.NewNop())

	i, ok := r.Employee("noor")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = r.Employee("nobody")
	assert.False(t, ok)

	_, ok = r.Employee("sam")
	assert.False(t, ok, "employees on leave are unreachable by rules")
}

func TestResolverTarget(t *testing.T) {
	r := NewResolver(rosterEmployees(), zap.NewNop())

	assert.Equal(t, []int{0, 1, 2}, r.Target(model.GroupTarget(model.GroupAll)))
	assert.Equal(t, []int{0}, r.Target(model.EmployeeTarget("aiko")))
	assert.Equal(t, []int{0, 1}, r.Target(model.PairTarget("aiko", "noor")))
	assert.Nil(t, r.Target(model.PairTarget("aiko", "sam")),
		"a pair with an unavailable member resolves to nobody")
}

func TestWeightsFallBackToDefaults(t *testing.T) {
	w := Weights{CategoryStaffingShortage: 500}

	assert.EqualValues(t, 500, w.Of(CategoryStaffingShortage))
	assert.EqualValues(t, 10, w.Of(CategoryStaffingExcess))
	assert.EqualValues(t, 1, w.Of(Category("unheard_of")))
}

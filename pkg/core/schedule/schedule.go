// Package schedule turns a solved assignment back into the duty roster
// operators read: one row per employee with the recent history prepended,
// plus per-day and per-employee shift totals.
package schedule

import (
	"fmt"

	"github.com/hollybank-care/rostergen/pkg/core/model"
	"github.com/hollybank-care/rostergen/pkg/core/roster"
)

// Row is one employee's line of the roster.
type Row struct {
	Employee model.Employee
	// History holds the shifts worked in the days before the period,
	// oldest first. Shorter than the history window when records are
	// missing.
	History []model.ShiftCode
	// Shifts holds the assigned shift for every period day.
	Shifts []model.ShiftCode
	// Totals counts period days per shift code.
	Totals map[model.ShiftCode]int
}

// WorkingDays counts the period days spent on a working shift.
func (r Row) WorkingDays() int {
	n := 0
	for _, s := range r.Shifts {
		if s.IsWorking() {
			n++
		}
	}
	return n
}

// Schedule is the assembled roster for one period.
type Schedule struct {
	Calendar model.Calendar
	Rows     []Row
	// DayTotals counts employees per shift code for every period day.
	DayTotals []map[model.ShiftCode]int
}

// Assemble reads the solver assignment out of the compiled model and joins
// it with the worked history.
func Assemble(compiled *roster.Compiled, values []int64, history model.History) *Schedule {
	numDays := compiled.Calendar.NumDays()

	s := &Schedule{
		Calendar:  compiled.Calendar,
		Rows:      make([]Row, 0, len(compiled.Employees)),
		DayTotals: make([]map[model.ShiftCode]int, numDays),
	}
	for d := range s.DayTotals {
		s.DayTotals[d] = map[model.ShiftCode]int{}
	}

	for e, employee := range compiled.Employees {
		row := Row{
			Employee: employee,
			History:  history[employee.ID],
			Shifts:   make([]model.ShiftCode, numDays),
			Totals:   map[model.ShiftCode]int{},
		}
		for d := 0; d < numDays; d++ {
			shift := compiled.ShiftAt(values, e, d)
			row.Shifts[d] = shift
			row.Totals[shift]++
			s.DayTotals[d][shift]++
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// Grid renders the schedule as a spreadsheet-shaped cell grid: a header of
// dates with the history window prepended, one row per employee, then one
// total row per shift code. History cells in total rows stay blank.
func (s *Schedule) Grid() [][]string {
	historyDays := 0
	for _, row := range s.Rows {
		if len(row.History) > historyDays {
			historyDays = len(row.History)
		}
	}

	header := []string{"employee"}
	for i := historyDays; i > 0; i-- {
		date := s.Calendar.Period.Start.AddDate(0, 0, -i)
		header = append(header, date.Format("01/02")+" (prev)")
	}
	for _, day := range s.Calendar.Days {
		label := day.Date.Format("01/02")
		if day.Holiday {
			label += " hol"
		}
		header = append(header, label)
	}

	grid := [][]string{header}
	for _, row := range s.Rows {
		cells := []string{row.Employee.Name}
		if row.Employee.Name == "" {
			cells[0] = row.Employee.ID
		}
		for i := historyDays; i > len(row.History); i-- {
			cells = append(cells, "")
		}
		for _, shift := range row.History {
			cells = append(cells, shift.String())
		}
		for _, shift := range row.Shifts {
			cells = append(cells, shift.String())
		}
		grid = append(grid, cells)
	}

	for _, code := range model.AllShiftCodes {
		cells := []string{fmt.Sprintf("total %s", code)}
		for i := 0; i < historyDays; i++ {
			cells = append(cells, "")
		}
		for d := range s.Calendar.Days {
			cells = append(cells, fmt.Sprintf("%d", s.DayTotals[d][code]))
		}
		grid = append(grid, cells)
	}
	return grid
}

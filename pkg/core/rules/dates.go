package rules

import (
	"fmt"
	"time"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

var fullDateLayouts = []string{"2006-01-02", "2006/1/2"}

var monthDayLayouts = []string{"1/2", "01-02"}

// ResolveDate canonicalizes a rule's date field against the active period.
// A full year-month-day form must fall inside the period. A year-less
// month-day form is tested against the period-start year and, when the
// period spans a year boundary, the period-end year; the first candidate
// inside the period wins.
func ResolveDate(field string, period model.Period) (time.Time, error) {
	for _, layout := range fullDateLayouts {
		parsed, err := time.Parse(layout, field)
		if err != nil {
			continue
		}
		date := model.Date(parsed.Year(), parsed.Month(), parsed.Day())
		if !period.Contains(date) {
			return time.Time{}, fmt.Errorf("date %q is outside the period %s..%s",
				field, period.Start.Format("2006-01-02"), period.End.Format("2006-01-02"))
		}
		return date, nil
	}

	for _, layout := range monthDayLayouts {
		parsed, err := time.Parse(layout, field)
		if err != nil {
			continue
		}

		years := []int{period.Start.Year()}
		if period.SpansYearBoundary() {
			years = append(years, period.End.Year())
		}
		for _, year := range years {
			candidate := model.Date(year, parsed.Month(), parsed.Day())
			if period.Contains(candidate) {
				return candidate, nil
			}
		}
		return time.Time{}, fmt.Errorf("date %q does not fall inside the period in any candidate year", field)
	}

	return time.Time{}, fmt.Errorf("unrecognized date format %q", field)
}

package model

import (
	"fmt"
	"time"
)

// Period is the contiguous, inclusive date range being scheduled. Both
// bounds are midnight UTC dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// Date normalizes a time to a midnight UTC date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NumDays returns the number of days in the period, inclusive of both ends.
func (p Period) NumDays() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether the date falls inside the period.
func (p Period) Contains(date time.Time) bool {
	return !date.Before(p.Start) && !date.After(p.End)
}

// SpansYearBoundary reports whether the period crosses a calendar year.
func (p Period) SpansYearBoundary() bool {
	return p.Start.Year() != p.End.Year()
}

// CalendarDay is one date of the period with its holiday flag.
type CalendarDay struct {
	Date    time.Time
	Holiday bool
}

// Weekday returns the day of week.
func (d CalendarDay) Weekday() time.Weekday {
	return d.Date.Weekday()
}

// Weekend reports whether the day is a Saturday or Sunday.
func (d CalendarDay) Weekend() bool {
	wd := d.Date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Calendar is the explicit ordered day list for the scheduling period.
type Calendar struct {
	Period Period
	Days   []CalendarDay

	index map[time.Time]int
}

// NewCalendar builds the day list for the period, marking the given public
// holidays. Holiday dates outside the period are ignored.
func NewCalendar(period Period, holidays []time.Time) (Calendar, error) {
	if period.End.Before(period.Start) {
		return Calendar{}, fmt.Errorf("period end %s is before start %s",
			period.End.Format("2006-01-02"), period.Start.Format("2006-01-02"))
	}

	holidaySet := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[Date(h.Year(), h.Month(), h.Day())] = true
	}

	numDays := period.NumDays()
	cal := Calendar{
		Period: period,
		Days:   make([]CalendarDay, 0, numDays),
		index:  make(map[time.Time]int, numDays),
	}
	for i := 0; i < numDays; i++ {
		date := period.Start.AddDate(0, 0, i)
		cal.Days = append(cal.Days, CalendarDay{Date: date, Holiday: holidaySet[date]})
		cal.index[date] = i
	}

	return cal, nil
}

// NumDays returns the number of days in the calendar.
func (c Calendar) NumDays() int {
	return len(c.Days)
}

// DayIndex resolves a date to its zero-based position in the period.
func (c Calendar) DayIndex(date time.Time) (int, bool) {
	i, ok := c.index[Date(date.Year(), date.Month(), date.Day())]
	return i, ok
}

// Date-type matchers classify calendar days for staffing rules.
const (
	DateTypeAll            = "ALL"
	DateTypeWeekday        = "WEEKDAY"
	DateTypeWeekend        = "WEEKEND"
	DateTypeHoliday        = "HOLIDAY"
	DateTypeWeekendHoliday = "WEEKEND_HOLIDAY"
)

// KnownDateType reports whether the matcher is one of the symbolic types or
// a specific ISO date.
func KnownDateType(dateType string) bool {
	switch dateType {
	case DateTypeAll, DateTypeWeekday, DateTypeWeekend, DateTypeHoliday, DateTypeWeekendHoliday:
		return true
	}
	_, err := time.Parse("2006-01-02", dateType)
	return err == nil
}

// MatchDateType reports whether the day satisfies the matcher. Unknown
// matchers never match.
func MatchDateType(day CalendarDay, dateType string) bool {
	switch dateType {
	case DateTypeAll:
		return true
	case DateTypeWeekday:
		return !day.Weekend() && !day.Holiday
	case DateTypeWeekend:
		return day.Weekend()
	case DateTypeHoliday:
		return day.Holiday
	case DateTypeWeekendHoliday:
		return day.Weekend() || day.Holiday
	}

	specific, err := time.Parse("2006-01-02", dateType)
	if err != nil {
		return false
	}
	return day.Date.Equal(Date(specific.Year(), specific.Month(), specific.Day()))
}

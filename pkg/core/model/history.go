package model

// HistoryWindowDays is the fixed number of days immediately preceding the
// period start for which worked shifts are recorded.
const HistoryWindowDays = 3

// History holds, per employee, the shift codes actually worked in the
// history window, ordered oldest first and ending on the day before the
// period start. An absent employee, or a window shorter than
// HistoryWindowDays, simply means no carry-over beyond the recorded days.
type History map[string][]ShiftCode

// CarriedRun returns the length of the in-progress run at period start:
// the number of consecutive history days, scanning backward from the day
// before the period start, whose code satisfies inRun. The scan stops at
// the first non-qualifying or missing day.
func (h History) CarriedRun(employeeID string, inRun func(ShiftCode) bool) int {
	window := h[employeeID]
	run := 0
	for i := len(window) - 1; i >= 0; i-- {
		if !inRun(window[i]) {
			break
		}
		run++
	}
	return run
}

// At returns the code worked daysBefore days before the period start
// (1 = the day immediately before). The second return value is false when
// the history window does not cover that day.
func (h History) At(employeeID string, daysBefore int) (ShiftCode, bool) {
	window := h[employeeID]
	idx := len(window) - daysBefore
	if daysBefore < 1 || idx < 0 {
		return 0, false
	}
	return window[idx], true
}

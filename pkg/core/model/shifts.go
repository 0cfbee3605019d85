package model

// ShiftCode is one symbolic value an employee can be assigned on a given day.
// The integer values double as the decision-variable domain in the compiled
// constraint model, so they must stay dense and stable.
type ShiftCode int

const (
	ShiftOff ShiftCode = iota
	ShiftDay
	ShiftEarly
	ShiftNight
	ShiftPostNight
	ShiftLeave
)

// NumShiftCodes is the size of the decision-variable domain.
const NumShiftCodes = 6

var shiftSymbols = map[ShiftCode]string{
	ShiftOff:       "off",
	ShiftDay:       "day",
	ShiftEarly:     "early",
	ShiftNight:     "night",
	ShiftPostNight: "post_night",
	ShiftLeave:     "leave",
}

var symbolShifts = map[string]ShiftCode{
	"off":        ShiftOff,
	"day":        ShiftDay,
	"early":      ShiftEarly,
	"night":      ShiftNight,
	"post_night": ShiftPostNight,
	"leave":      ShiftLeave,
}

// Partitions of the shift-code set. Process-wide static data, read-only
// after package initialization.
var (
	// WorkingShiftCodes count toward consecutive-work runs.
	WorkingShiftCodes = []ShiftCode{ShiftDay, ShiftEarly, ShiftNight, ShiftPostNight}

	// OffShiftCodes count toward consecutive-off runs.
	OffShiftCodes = []ShiftCode{ShiftOff, ShiftLeave}

	// LeaveShiftCodes are the special-status codes: pinned for employees on
	// fixed leave, forbidden for everyone else.
	LeaveShiftCodes = []ShiftCode{ShiftLeave}

	// AllShiftCodes in domain order.
	AllShiftCodes = []ShiftCode{ShiftOff, ShiftDay, ShiftEarly, ShiftNight, ShiftPostNight, ShiftLeave}
)

func (s ShiftCode) String() string {
	if sym, ok := shiftSymbols[s]; ok {
		return sym
	}
	return "unknown"
}

// ParseShiftCode resolves a shift symbol to its code. The second return
// value is false for symbols outside the known set.
func ParseShiftCode(symbol string) (ShiftCode, bool) {
	code, ok := symbolShifts[symbol]
	return code, ok
}

// IsWorking reports whether the code belongs to the working partition.
func (s ShiftCode) IsWorking() bool {
	switch s {
	case ShiftDay, ShiftEarly, ShiftNight, ShiftPostNight:
		return true
	}
	return false
}

// IsOff reports whether the code belongs to the off partition.
func (s ShiftCode) IsOff() bool {
	return s == ShiftOff || s == ShiftLeave
}

// IsLeave reports whether the code is a special leave status.
func (s ShiftCode) IsLeave() bool {
	return s == ShiftLeave
}

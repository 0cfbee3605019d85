package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseShiftCode(t *testing.T) {
	tests := []struct {
		symbol string
		code   ShiftCode
		ok     bool
	}{
		{"day", ShiftDay, true},
		{"early", ShiftEarly, true},
		{"night", ShiftNight, true},
		{"post_night", ShiftPostNight, true},
		{"off", ShiftOff, true},
		{"leave", ShiftLeave, true},
		{"", 0, false},
		{"lunch", 0, false},
		{"Day", 0, false}, // symbols are case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			code, ok := ParseShiftCode(tt.symbol)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.code, code)
			}
		})
	}
}

func TestShiftCodePartitions(t *testing.T) {
	// Every code belongs to exactly one of the working / off partitions
	for _, code := range AllShiftCodes {
		assert.NotEqual(t, code.IsWorking(), code.IsOff(),
			"code %s must be in exactly one partition", code)
	}

	assert.True(t, ShiftNight.IsWorking())
	assert.True(t, ShiftPostNight.IsWorking())
	assert.True(t, ShiftOff.IsOff())
	assert.True(t, ShiftLeave.IsOff())
	assert.True(t, ShiftLeave.IsLeave())
	assert.False(t, ShiftOff.IsLeave())
}

func TestShiftCodeStringRoundTrip(t *testing.T) {
	for _, code := range AllShiftCodes {
		parsed, ok := ParseShiftCode(code.String())
		assert.True(t, ok)
		assert.Equal(t, code, parsed)
	}
}

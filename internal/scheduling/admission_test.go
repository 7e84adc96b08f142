package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckWindow(t *testing.T) {
	existing := []Interval{iv(t, "09:00", "12:00")}

	assert.ErrorIs(t, CheckWindow(existing, iv(t, "09:00", "12:00")), ErrWindowOverlap)
	assert.ErrorIs(t, CheckWindow(existing, iv(t, "11:00", "13:00")), ErrWindowOverlap)
	assert.NoError(t, CheckWindow(existing, iv(t, "12:00", "13:00")))
	assert.NoError(t, CheckWindow(existing, iv(t, "07:00", "09:00")))
	assert.ErrorIs(t, CheckWindow(nil, Interval{Start: MustClock(9, 0), End: MustClock(9, 0)}), ErrInvalidInterval)
}

func TestCheckWindowOrderIndependent(t *testing.T) {
	windows := []Interval{iv(t, "13:00", "14:00"), iv(t, "08:00", "09:00"), iv(t, "10:00", "12:00"), iv(t, "09:00", "10:00")}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {2, 0, 3, 1}}
	for _, order := range orders {
		var accepted []Interval
		for _, idx := range order {
			assert.NoError(t, CheckWindow(accepted, windows[idx]))
			accepted = append(accepted, windows[idx])
		}
	}
}

func TestAdmit(t *testing.T) {
	windows := []Interval{iv(t, "09:00", "12:00"), iv(t, "12:00", "14:00")}
	occupied := []Interval{iv(t, "10:00", "11:00")}

	assert.NoError(t, Admit(windows, nil, iv(t, "09:00", "10:00")))
	assert.NoError(t, Admit(windows, occupied, iv(t, "11:00", "12:00")))
	assert.ErrorIs(t, Admit(windows, nil, iv(t, "08:30", "09:30")), ErrOutsideAvailability)
	assert.ErrorIs(t, Admit(windows, nil, iv(t, "11:00", "13:00")), ErrOutsideAvailability, "spanning two adjacent windows is rejected")
	assert.ErrorIs(t, Admit(windows, occupied, iv(t, "09:30", "10:30")), ErrSlotConflict)
	assert.ErrorIs(t, Admit(windows, occupied, iv(t, "10:30", "11:30")), ErrSlotConflict)
	assert.ErrorIs(t, Admit(windows, occupied, iv(t, "09:00", "12:00")), ErrSlotConflict)
	assert.ErrorIs(t, Admit(nil, nil, iv(t, "09:00", "10:00")), ErrOutsideAvailability)
}

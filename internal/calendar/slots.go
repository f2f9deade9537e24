package calendar

import (
	"fmt"
	"time"
)

// Opening hours for bookable start times, in the reference timezone.
const (
	FirstSlotHour = 12
	LastSlotHour  = 21
	SlotStep      = 30 * time.Minute
)

// Durations lists the allowed reservation lengths in minutes.
var Durations = []int{15, 30, 45}

// ValidDuration reports whether minutes is one of Durations.
func ValidDuration(minutes int) bool {
	for _, d := range Durations {
		if d == minutes {
			return true
		}
	}
	return false
}

// TimeSlots returns the bookable start times as HH:MM, from 12:00 to 21:30.
func TimeSlots() []string {
	var out []string
	base := time.Date(2000, 1, 1, FirstSlotHour, 0, 0, 0, time.UTC)
	last := time.Date(2000, 1, 1, LastSlotHour, 30, 0, 0, time.UTC)
	for t := base; !t.After(last); t = t.Add(SlotStep) {
		out = append(out, t.Format("15:04"))
	}
	return out
}

// At combines a date with an HH:MM wall-clock time in the reference timezone.
func (p *Policy) At(day time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	y, m, d := p.Date(day).Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, p.loc), nil
}

// ValidSlot reports whether hhmm is one of TimeSlots.
func ValidSlot(hhmm string) bool {
	for _, s := range TimeSlots() {
		if s == hhmm {
			return true
		}
	}
	return false
}

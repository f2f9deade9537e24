// Package calendar is the single source of "now" and of business-day
// arithmetic. Everything that decides which dates can be booked, or offers
// dates to a user, goes through a Policy so both stay in lock-step.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTimezone is the restaurant's reference timezone.
	DefaultTimezone = "Europe/Moscow"

	// LeadTimeBusinessDays bounds how far ahead a reservation may start.
	LeadTimeBusinessDays = 2
)

// Date choice keys accepted by ResolveDate and returned by OfferedDates.
const (
	Today            = "today"
	Tomorrow         = "tomorrow"
	DayAfterTomorrow = "day_after_tomorrow"
)

// ErrUnknownDate is returned by ResolveDate for unparseable input.
var ErrUnknownDate = errors.New("unknown date")

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns At. Tests move it by reassigning At.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time { return c.At }

// Policy evaluates dates in one reference timezone.
type Policy struct {
	clock Clock
	loc   *time.Location
}

// NewPolicy builds a Policy. A nil location means UTC.
func NewPolicy(clock Clock, loc *time.Location) *Policy {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Policy{clock: clock, loc: loc}
}

// LoadPolicy resolves the named timezone and builds a Policy on it.
func LoadPolicy(clock Clock, tz string) (*Policy, error) {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return NewPolicy(clock, loc), nil
}

// Now returns the current instant in the reference timezone.
func (p *Policy) Now() time.Time { return p.clock.Now().In(p.loc) }

// Location returns the reference timezone.
func (p *Policy) Location() *time.Location { return p.loc }

// Date truncates t to midnight of its calendar date in the reference timezone.
func (p *Policy) Date(t time.Time) time.Time {
	y, m, d := t.In(p.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.loc)
}

// IsBusinessDay reports whether d falls on Monday through Friday.
func IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// BusinessDaysUntil counts the weekdays from today (inclusive) up to the
// target's date (exclusive). Dates are compared, not instants, so any
// target on or before today yields 0.
func (p *Policy) BusinessDaysUntil(target time.Time) int {
	end := p.Date(target)
	n := 0
	for d := p.Date(p.Now()); d.Before(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}
	return n
}

// WithinLeadTime reports whether a reservation starting at start is inside
// the booking window.
func (p *Policy) WithinLeadTime(start time.Time) bool {
	return p.BusinessDaysUntil(start) <= LeadTimeBusinessDays
}

// NextBusinessDayOnOrAfter walks forward from d until a weekday is found.
func (p *Policy) NextBusinessDayOnOrAfter(d time.Time) time.Time {
	day := p.Date(d)
	for !IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// DateOption is one bookable date offered to a user.
type DateOption struct {
	Key  string    `json:"key"`
	Date time.Time `json:"date"`
}

// OfferedDates lists the date choices a user may pick from: today and
// tomorrow when they are weekdays, and the next business day on or after
// the day after tomorrow when it is still inside the lead-time window.
func (p *Policy) OfferedDates() []DateOption {
	today := p.Date(p.Now())
	var out []DateOption
	if IsBusinessDay(today) {
		out = append(out, DateOption{Key: Today, Date: today})
	}
	tomorrow := today.AddDate(0, 0, 1)
	if IsBusinessDay(tomorrow) {
		out = append(out, DateOption{Key: Tomorrow, Date: tomorrow})
	}
	next := p.NextBusinessDayOnOrAfter(today.AddDate(0, 0, 2))
	if p.WithinLeadTime(next) {
		out = append(out, DateOption{Key: DayAfterTomorrow, Date: next})
	}
	return out
}

// ResolveDate maps a date choice key or an ISO date (YYYY-MM-DD) to
// midnight of that date in the reference timezone.
func (p *Policy) ResolveDate(s string) (time.Time, error) {
	today := p.Date(p.Now())
	switch strings.TrimSpace(s) {
	case Today:
		return today, nil
	case Tomorrow:
		return today.AddDate(0, 0, 1), nil
	case DayAfterTomorrow:
		return p.NextBusinessDayOnOrAfter(today.AddDate(0, 0, 2)), nil
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownDate, s)
	}
	return d, nil
}

// DayBounds returns [midnight, next midnight) of day's date.
func (p *Policy) DayBounds(day time.Time) (time.Time, time.Time) {
	from := p.Date(day)
	return from, from.AddDate(0, 0, 1)
}

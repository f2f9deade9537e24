package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func policyAt(t time.Time) *Policy {
	return NewPolicy(&FixedClock{At: t}, msk)
}

func day(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, msk)
}

func TestBusinessDaysUntil_FromMonday(t *testing.T) {
	p := policyAt(day(2025, time.June, 2, 10, 0)) // Monday

	assert.Equal(t, 0, p.BusinessDaysUntil(day(2025, time.June, 2, 18, 0)))
	assert.Equal(t, 1, p.BusinessDaysUntil(day(2025, time.June, 3, 12, 0)))
	assert.Equal(t, 2, p.BusinessDaysUntil(day(2025, time.June, 4, 12, 0)))
	assert.Equal(t, 3, p.BusinessDaysUntil(day(2025, time.June, 5, 12, 0)))

	assert.True(t, p.WithinLeadTime(day(2025, time.June, 4, 21, 30)))
	assert.False(t, p.WithinLeadTime(day(2025, time.June, 5, 12, 0)))
}

func TestBusinessDaysUntil_SkipsWeekend(t *testing.T) {
	p := policyAt(day(2025, time.June, 6, 10, 0)) // Friday

	assert.Equal(t, 1, p.BusinessDaysUntil(day(2025, time.June, 9, 12, 0)))  // Monday
	assert.Equal(t, 2, p.BusinessDaysUntil(day(2025, time.June, 10, 12, 0))) // Tuesday
	assert.Equal(t, 3, p.BusinessDaysUntil(day(2025, time.June, 11, 12, 0))) // Wednesday

	sat := policyAt(day(2025, time.June, 7, 10, 0))
	assert.Equal(t, 0, sat.BusinessDaysUntil(day(2025, time.June, 9, 12, 0)))
	assert.Equal(t, 2, sat.BusinessDaysUntil(day(2025, time.June, 11, 12, 0)))
}

func TestBusinessDaysUntil_PastTargetIsZero(t *testing.T) {
	p := policyAt(day(2025, time.June, 4, 10, 0))
	assert.Equal(t, 0, p.BusinessDaysUntil(day(2025, time.June, 2, 12, 0)))
}

func TestBusinessDaysUntil_UsesReferenceDate(t *testing.T) {
	// 22:30 UTC on Monday is already Tuesday in the reference zone.
	p := NewPolicy(&FixedClock{At: time.Date(2025, time.June, 2, 22, 30, 0, 0, time.UTC)}, msk)
	assert.Equal(t, 1, p.BusinessDaysUntil(day(2025, time.June, 4, 12, 0)))
}

func TestNextBusinessDayOnOrAfter(t *testing.T) {
	p := policyAt(day(2025, time.June, 2, 10, 0))

	assert.Equal(t, day(2025, time.June, 9, 0, 0), p.NextBusinessDayOnOrAfter(day(2025, time.June, 7, 15, 0)))
	assert.Equal(t, day(2025, time.June, 9, 0, 0), p.NextBusinessDayOnOrAfter(day(2025, time.June, 8, 0, 0)))
	assert.Equal(t, day(2025, time.June, 4, 0, 0), p.NextBusinessDayOnOrAfter(day(2025, time.June, 4, 9, 0)))
}

func keys(opts []DateOption) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Key)
	}
	return out
}

func TestOfferedDates(t *testing.T) {
	mon := policyAt(day(2025, time.June, 2, 10, 0))
	opts := mon.OfferedDates()
	require.Len(t, opts, 3)
	assert.Equal(t, []string{Today, Tomorrow, DayAfterTomorrow}, keys(opts))
	assert.Equal(t, day(2025, time.June, 4, 0, 0), opts[2].Date)

	fri := policyAt(day(2025, time.June, 6, 10, 0))
	opts = fri.OfferedDates()
	assert.Equal(t, []string{Today, DayAfterTomorrow}, keys(opts))
	assert.Equal(t, day(2025, time.June, 9, 0, 0), opts[1].Date)

	sat := policyAt(day(2025, time.June, 7, 10, 0))
	assert.Equal(t, []string{DayAfterTomorrow}, keys(sat.OfferedDates()))
}

func TestOfferedDatesAreAlwaysAdmissible(t *testing.T) {
	start := day(2025, time.June, 1, 9, 0)
	for i := 0; i < 14; i++ {
		p := policyAt(start.AddDate(0, 0, i))
		for _, o := range p.OfferedDates() {
			assert.True(t, p.WithinLeadTime(o.Date), "offered %s on %s", o.Date, p.Now())
		}
	}
}

func TestResolveDate(t *testing.T) {
	p := policyAt(day(2025, time.June, 6, 10, 0)) // Friday

	d, err := p.ResolveDate(Today)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.June, 6, 0, 0), d)

	d, err = p.ResolveDate(Tomorrow)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.June, 7, 0, 0), d)

	d, err = p.ResolveDate(DayAfterTomorrow)
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.June, 9, 0, 0), d)

	d, err = p.ResolveDate("2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.June, 10, 0, 0), d)

	_, err = p.ResolveDate("next week")
	assert.ErrorIs(t, err, ErrUnknownDate)
}

func TestTimeSlotsAndDurations(t *testing.T) {
	slots := TimeSlots()
	require.Len(t, slots, 20)
	assert.Equal(t, "12:00", slots[0])
	assert.Equal(t, "21:30", slots[len(slots)-1])

	assert.True(t, ValidDuration(45))
	assert.False(t, ValidDuration(60))
	assert.True(t, ValidSlot("13:30"))
	assert.False(t, ValidSlot("13:15"))
	assert.False(t, ValidSlot("22:00"))
}

func TestAt(t *testing.T) {
	p := policyAt(day(2025, time.June, 2, 10, 0))

	got, err := p.At(day(2025, time.June, 3, 0, 0), "19:30")
	require.NoError(t, err)
	assert.Equal(t, day(2025, time.June, 3, 19, 30), got)

	_, err = p.At(day(2025, time.June, 3, 0, 0), "7pm")
	assert.Error(t, err)
}

func TestDayBounds(t *testing.T) {
	p := policyAt(day(2025, time.June, 2, 10, 0))
	from, to := p.DayBounds(day(2025, time.June, 3, 17, 45))
	assert.Equal(t, day(2025, time.June, 3, 0, 0), from)
	assert.Equal(t, day(2025, time.June, 4, 0, 0), to)
}

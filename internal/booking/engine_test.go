package booking

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

var msk = time.FixedZone("MSK", 3*60*60)

// monday is 2025-06-02 10:00 in the reference zone.
var monday = time.Date(2025, time.June, 2, 10, 0, 0, 0, msk)

func at(dayOffset, hh, mm int) time.Time {
	return time.Date(2025, time.June, 2+dayOffset, hh, mm, 0, 0, msk)
}

type fakeReservations struct {
	items []model.Reservation
	err   error
}

func (f *fakeReservations) FindOverlapping(_ context.Context, tableID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Reservation
	for _, r := range f.items {
		if r.TableID == tableID && r.ID != excludeID && r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeReservations) CountLiveByTable(_ context.Context, tableID uint64, now time.Time) (int, error) {
	n := 0
	for _, r := range f.items {
		if r.TableID == tableID && r.IsLive(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservations) CountByClient(_ context.Context, clientID uint64) (int, error) {
	n := 0
	for _, r := range f.items {
		if r.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

func newTestEngine(now time.Time) (*Engine, *calendar.FixedClock) {
	clock := &calendar.FixedClock{At: now}
	return NewEngine(calendar.NewPolicy(clock, msk)), clock
}

var table2 = model.Table{ID: 1, Number: "7", Seats: 2}

func candidate(start time.Time, minutes, guests int) model.Reservation {
	return model.Reservation{ClientID: 1, TableID: table2.ID, GuestsCount: guests, StartTime: start, EndTime: start.Add(time.Duration(minutes) * time.Minute)}
}

func fieldsOf(t *testing.T, err error) map[string][]string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected *ValidationError, got %v", err)
	return ve.Fields
}

func TestValidate_Admits(t *testing.T) {
	e, _ := newTestEngine(monday)
	err := e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(1, 13, 0), 45, 2), Standard)
	assert.NoError(t, err)
}

func TestValidate_OverlapAndTouching(t *testing.T) {
	e, _ := newTestEngine(monday)
	store := &fakeReservations{items: []model.Reservation{{ID: 10, TableID: 1, StartTime: at(1, 13, 0), EndTime: at(1, 14, 0)}}}

	err := e.Validate(context.Background(), store, table2, candidate(at(1, 13, 30), 45, 2), Standard)
	fields := fieldsOf(t, err)
	require.Contains(t, fields, "table")
	assert.Contains(t, fields["table"][0], "03.06.2025 13:00-14:00")

	assert.NoError(t, e.Validate(context.Background(), store, table2, candidate(at(1, 14, 0), 45, 2), Standard))
	assert.NoError(t, e.Validate(context.Background(), store, table2, candidate(at(1, 12, 15), 45, 2), Standard))
}

func TestValidate_UpdateExcludesItself(t *testing.T) {
	e, _ := newTestEngine(monday)
	store := &fakeReservations{items: []model.Reservation{{ID: 10, TableID: 1, StartTime: at(1, 13, 0), EndTime: at(1, 13, 45)}}}

	c := candidate(at(1, 13, 15), 45, 2)
	c.ID = 10
	assert.NoError(t, e.Validate(context.Background(), store, table2, c, Standard))
}

func TestValidate_OverlapMessageListsThreeAndCountsRest(t *testing.T) {
	e, _ := newTestEngine(monday)
	store := &fakeReservations{}
	for i := 0; i < 5; i++ {
		start := at(1, 12, 0).Add(time.Duration(i) * 15 * time.Minute)
		store.items = append(store.items, model.Reservation{ID: uint64(i + 1), TableID: 1, StartTime: start, EndTime: start.Add(15 * time.Minute)})
	}
	err := e.Validate(context.Background(), store, table2, model.Reservation{TableID: 1, GuestsCount: 1, StartTime: at(1, 11, 0), EndTime: at(1, 14, 0)}, Standard)
	msg := fieldsOf(t, err)["table"][0]
	assert.Contains(t, msg, "12:00-12:15")
	assert.Contains(t, msg, "12:30-12:45")
	assert.NotContains(t, msg, "12:45-13:00")
	assert.Contains(t, msg, "and 2 more")
}

func TestValidate_SeatsBound(t *testing.T) {
	e, _ := newTestEngine(monday)
	err := e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(1, 13, 0), 30, 3), Standard)
	msg := fieldsOf(t, err)["guests_count"][0]
	assert.Contains(t, msg, "2")
	assert.Contains(t, msg, "3")

	err = e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(1, 13, 0), 30, 0), Standard)
	assert.Contains(t, fieldsOf(t, err), "guests_count")
}

func TestValidate_LeadTime(t *testing.T) {
	e, _ := newTestEngine(monday)
	assert.NoError(t, e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(2, 21, 30), 30, 2), Standard))

	err := e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(3, 12, 0), 30, 2), Standard)
	assert.Contains(t, fieldsOf(t, err)["start_time"][0], "2 business days")
}

func TestValidate_PastStartHasDedicatedMessage(t *testing.T) {
	e, _ := newTestEngine(monday)
	err := e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(0, 9, 0), 30, 2), Standard)
	assert.Equal(t, []string{"Start time must be in the future"}, fieldsOf(t, err)["start_time"])

	// Administrative imports may record history.
	assert.NoError(t, e.Validate(context.Background(), &fakeReservations{}, table2, candidate(at(-7, 13, 0), 45, 2), Administrative))
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	e, _ := newTestEngine(monday)
	store := &fakeReservations{items: []model.Reservation{{ID: 3, TableID: 1, StartTime: at(3, 12, 0), EndTime: at(3, 13, 0)}}}

	err := e.Validate(context.Background(), store, table2, candidate(at(3, 12, 30), 30, 4), Standard)
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "guests_count")
	assert.Contains(t, fields, "start_time")
	assert.Contains(t, fields, "table")
}

func TestValidate_EndBeforeStart(t *testing.T) {
	e, _ := newTestEngine(monday)
	c := candidate(at(1, 13, 0), 0, 2)
	err := e.Validate(context.Background(), &fakeReservations{err: errors.New("must not be queried")}, table2, c, Standard)
	assert.Contains(t, fieldsOf(t, err), "end_time")
}

func TestValidate_StoreErrorIsNotValidation(t *testing.T) {
	e, _ := newTestEngine(monday)
	boom := errors.New("boom")
	err := e.Validate(context.Background(), &fakeReservations{err: boom}, table2, candidate(at(1, 13, 0), 30, 2), Standard)
	assert.ErrorIs(t, err, boom)
	var ve *ValidationError
	assert.False(t, errors.As(err, &ve))
}

func TestCanModifyOrCancel(t *testing.T) {
	e, clock := newTestEngine(monday)
	r := candidate(at(0, 12, 0), 30, 2)

	clock.At = at(0, 11, 31) // 29 minutes before
	assert.False(t, e.CanModifyOrCancel(r))
	assert.ErrorIs(t, e.CheckModifiable(model.RoleClient, r), ErrModifyCutoff)
	assert.NoError(t, e.CheckModifiable(model.RoleOperator, r))

	clock.At = at(0, 11, 30) // exactly 30 minutes
	assert.True(t, e.CanModifyOrCancel(r))

	clock.At = at(0, 11, 29)
	assert.True(t, e.CanModifyOrCancel(r))

	clock.At = at(0, 12, 0)
	assert.False(t, e.CanModifyOrCancel(r))
}

func TestDeleteGuards(t *testing.T) {
	e, clock := newTestEngine(monday)
	store := &fakeReservations{items: []model.Reservation{{ID: 1, ClientID: 5, TableID: 1, StartTime: at(0, 13, 0), EndTime: at(0, 14, 0)}}}

	var ie *IntegrityError
	err := e.GuardTableDelete(context.Background(), store, 1)
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "table", ie.Entity)

	clock.At = at(0, 14, 1)
	assert.NoError(t, e.GuardTableDelete(context.Background(), store, 1))

	err = e.GuardClientDelete(context.Background(), store, 5)
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "client", ie.Entity)
	assert.NoError(t, e.GuardClientDelete(context.Background(), store, 6))
}

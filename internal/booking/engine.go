// Package booking admits table reservations and dish pre-orders. The
// Engine and Allocator hold the admission rules and read state through
// narrow interfaces; Service runs them inside one store transaction.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ModifyCutoff is the minimum time before start a client may still change
// or cancel a reservation.
const ModifyCutoff = 30 * time.Minute

// maxListedConflicts caps how many clashing intervals an overlap message names.
const maxListedConflicts = 3

// Admission selects which checks apply to a candidate reservation.
type Admission int

const (
	// Standard is the path used by clients and operators.
	Standard Admission = iota
	// Administrative skips the past-start and lead-time checks so historical
	// reservations can be imported.
	Administrative
)

// OverlapFinder returns reservations on a table that intersect [start, end),
// ignoring excludeID, ordered by start time.
type OverlapFinder interface {
	FindOverlapping(ctx context.Context, tableID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error)
}

// LiveReservationCounter counts reservations on a table that have not ended.
type LiveReservationCounter interface {
	CountLiveByTable(ctx context.Context, tableID uint64, now time.Time) (int, error)
}

// ClientReservationCounter counts every reservation of a client, past ones included.
type ClientReservationCounter interface {
	CountByClient(ctx context.Context, clientID uint64) (int, error)
}

// Engine validates reservations against table capacity, the booking
// window and the other reservations on the same table.
type Engine struct {
	policy *calendar.Policy
}

func NewEngine(policy *calendar.Policy) *Engine {
	return &Engine{policy: policy}
}

// Validate checks r against every reservation rule and reports all
// violations at once. A nil return means r may be written. r.ID is
// excluded from the overlap search, so updates pass the stored id.
func (e *Engine) Validate(ctx context.Context, finder OverlapFinder, table model.Table, r model.Reservation, mode Admission) error {
	verr := e.CheckGuests(table, r.GuestsCount)

	validInterval := r.EndTime.After(r.StartTime)
	if !validInterval {
		verr.Add("end_time", "End time must be after start time")
	}

	if mode == Standard {
		if !r.StartTime.After(e.policy.Now()) {
			verr.Add("start_time", "Start time must be in the future")
		} else if !e.policy.WithinLeadTime(r.StartTime) {
			verr.Add("start_time", fmt.Sprintf("Reservations can be made at most %d business days ahead", calendar.LeadTimeBusinessDays))
		}
	}

	if validInterval {
		conflicts, err := finder.FindOverlapping(ctx, table.ID, r.StartTime, r.EndTime, r.ID)
		if err != nil {
			return fmt.Errorf("find overlapping reservations: %w", err)
		}
		if len(conflicts) > 0 {
			verr.Add("table", e.overlapMessage(conflicts))
		}
	}
	return verr.OrNil()
}

// CheckGuests validates the party size against the table's seats.
func (e *Engine) CheckGuests(table model.Table, guests int) *ValidationError {
	verr := &ValidationError{}
	if guests <= 0 {
		verr.Add("guests_count", "Guests count must be greater than 0")
	} else if guests > table.Seats {
		verr.Add("guests_count", fmt.Sprintf("Table %s seats at most %d guests, requested %d", table.Number, table.Seats, guests))
	}
	return verr
}

func (e *Engine) overlapMessage(conflicts []model.Reservation) string {
	loc := e.policy.Location()
	n := len(conflicts)
	if n > maxListedConflicts {
		n = maxListedConflicts
	}
	spans := make([]string, 0, n)
	for _, c := range conflicts[:n] {
		spans = append(spans, c.StartTime.In(loc).Format("02.01.2006 15:04")+"-"+c.EndTime.In(loc).Format("15:04"))
	}
	msg := "Table is already booked at the selected time: " + strings.Join(spans, ", ")
	if rest := len(conflicts) - n; rest > 0 {
		msg += fmt.Sprintf(" and %d more", rest)
	}
	return msg
}

// CanModifyOrCancel reports whether r still starts at least ModifyCutoff
// from now.
func (e *Engine) CanModifyOrCancel(r model.Reservation) bool {
	now := e.policy.Now()
	if !r.StartTime.After(now) {
		return false
	}
	return r.StartTime.Sub(now) >= ModifyCutoff
}

// CheckModifiable applies the cutoff to clients only; staff bypass it.
func (e *Engine) CheckModifiable(role model.Role, r model.Reservation) error {
	if role.IsStaff() || e.CanModifyOrCancel(r) {
		return nil
	}
	return ErrModifyCutoff
}

// GuardTableDelete blocks deleting a table that still has live reservations.
func (e *Engine) GuardTableDelete(ctx context.Context, counter LiveReservationCounter, tableID uint64) error {
	n, err := counter.CountLiveByTable(ctx, tableID, e.policy.Now())
	if err != nil {
		return fmt.Errorf("count live reservations: %w", err)
	}
	if n > 0 {
		return &IntegrityError{Entity: "table", Dependents: "active or upcoming reservations", Count: n}
	}
	return nil
}

// GuardClientDelete blocks deleting a client with any reservation at all.
func (e *Engine) GuardClientDelete(ctx context.Context, counter ClientReservationCounter, clientID uint64) error {
	n, err := counter.CountByClient(ctx, clientID)
	if err != nil {
		return fmt.Errorf("count client reservations: %w", err)
	}
	if n > 0 {
		return &IntegrityError{Entity: "client", Dependents: "reservations", Count: n}
	}
	return nil
}

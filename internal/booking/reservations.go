package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// ReservationRequest is a candidate booking. ClientID is honoured for staff
// only; clients always book for their own profile.
type ReservationRequest struct {
	ClientID        uint64
	TableID         uint64
	GuestsCount     int
	StartTime       time.Time
	DurationMinutes int
	// Invalid holds problems found while decoding the request. When it is
	// non-empty StartTime is unknown: the other fields are still checked
	// and everything is reported together, but nothing is written.
	Invalid *ValidationError
}

// ReservationDetail is a reservation with its pre-order lines.
type ReservationDetail struct {
	model.ReservationSummary
	Lines      []model.PreOrderLine
	TotalCents int64
	CanModify  bool
}

// Interval is an occupied span of a table.
type Interval struct {
	ReservationID uint64
	Start         time.Time
	End           time.Time
}

const alreadyBooked = "Table is already booked at the selected time"

// CreateReservation admits and stores a new reservation.
func (s *Service) CreateReservation(ctx context.Context, actor Actor, req ReservationRequest) (*model.Reservation, error) {
	return s.saveReservation(ctx, actor, 0, req, Standard)
}

// UpdateReservation re-admits reservation id with the requested values.
// Clients may only touch their own reservations and only before the
// modification cutoff.
func (s *Service) UpdateReservation(ctx context.Context, actor Actor, id uint64, req ReservationRequest) (*model.Reservation, error) {
	return s.saveReservation(ctx, actor, id, req, Standard)
}

// ImportReservation stores a reservation without the past-start and
// lead-time checks. Admins only.
func (s *Service) ImportReservation(ctx context.Context, actor Actor, req ReservationRequest) (*model.Reservation, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.saveReservation(ctx, actor, 0, req, Administrative)
}

func (s *Service) saveReservation(ctx context.Context, actor Actor, id uint64, req ReservationRequest, mode Admission) (*model.Reservation, error) {
	clientID := req.ClientID
	if !actor.Role.IsStaff() {
		if actor.ClientID == 0 {
			return nil, ErrForbidden
		}
		clientID = actor.ClientID
	}

	var saved model.Reservation
	err := s.admit(ctx, "table", alreadyBooked, func(tx *repository.Tx) error {
		// The table lock is taken first so every read below sees the rows
		// committed by whoever held it before us.
		table, err := tx.Tables.GetByIDForUpdate(ctx, req.TableID)
		if err != nil {
			return mapNotFound(err, "table", req.TableID)
		}

		verr := &ValidationError{}
		if mode == Standard && !calendar.ValidDuration(req.DurationMinutes) {
			verr.Add("duration_minutes", fmt.Sprintf("Duration must be one of %v minutes", calendar.Durations))
		} else if req.DurationMinutes <= 0 {
			verr.Add("duration_minutes", "Duration must be positive")
		}

		cand := model.Reservation{
			ClientID:    clientID,
			TableID:     req.TableID,
			GuestsCount: req.GuestsCount,
			StartTime:   req.StartTime,
			EndTime:     req.StartTime.Add(time.Duration(req.DurationMinutes) * time.Minute),
			CreatedAt:   s.policy.Now(),
		}

		if id != 0 {
			existing, err := tx.Reservations.GetByID(ctx, id)
			if err != nil {
				return mapNotFound(err, "reservation", id)
			}
			if !actor.owns(*existing) {
				return notFound("reservation", id)
			}
			if err := s.engine.CheckModifiable(actor.Role, *existing); err != nil {
				return err
			}
			cand.ID = existing.ID
			cand.CreatedAt = existing.CreatedAt
			if cand.ClientID == 0 {
				cand.ClientID = existing.ClientID
			}
		}

		if _, err := tx.Clients.GetByID(ctx, cand.ClientID); err != nil {
			return mapNotFound(err, "client", cand.ClientID)
		}

		if !req.Invalid.Empty() {
			_ = verr.Merge(req.Invalid)
			_ = verr.Merge(s.engine.CheckGuests(*table, cand.GuestsCount))
			return verr
		}
		if err := verr.Merge(s.engine.Validate(ctx, tx.Reservations, *table, cand, mode)); err != nil {
			return err
		}
		if !verr.Empty() {
			return verr
		}

		if cand.ID == 0 {
			if err := tx.Reservations.Create(ctx, &cand); err != nil {
				return err
			}
		} else if err := tx.Reservations.Update(ctx, &cand); err != nil {
			return err
		}
		saved = cand
		return nil
	})
	if err != nil {
		s.log.Debug("reservation rejected", zap.Uint64("table_id", req.TableID), zap.Error(err))
		return nil, err
	}

	ev := queue.ReservationCreated
	if id != 0 {
		ev = queue.ReservationUpdated
	}
	s.log.Info("reservation admitted",
		zap.Uint64("reservation_id", saved.ID),
		zap.Uint64("table_id", saved.TableID),
		zap.Time("start", saved.StartTime),
		zap.String("actor_role", string(actor.Role)))
	s.publish(ctx, ev, saved, actor)
	return &saved, nil
}

// CancelReservation hard-deletes a reservation and its pre-order lines.
func (s *Service) CancelReservation(ctx context.Context, actor Actor, id uint64) error {
	var deleted model.Reservation
	err := s.store.WithTx(ctx, func(tx *repository.Tx) error {
		r, err := tx.Reservations.GetByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "reservation", id)
		}
		if !actor.owns(*r) {
			return notFound("reservation", id)
		}
		if err := s.engine.CheckModifiable(actor.Role, *r); err != nil {
			return err
		}
		deleted = *r
		return tx.Reservations.Delete(ctx, id)
	})
	if err != nil {
		return mapNotFound(err, "reservation", id)
	}
	s.log.Info("reservation cancelled", zap.Uint64("reservation_id", id), zap.String("actor_role", string(actor.Role)))
	s.publish(ctx, queue.ReservationCancelled, deleted, actor)
	return nil
}

// GetReservation returns a reservation visible to actor with its lines.
func (s *Service) GetReservation(ctx context.Context, actor Actor, id uint64) (*ReservationDetail, error) {
	sum, err := s.store.Reservations.GetSummary(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "reservation", id)
	}
	if !actor.owns(sum.Reservation) {
		return nil, notFound("reservation", id)
	}
	lines, err := s.store.PreOrders.ListByReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &ReservationDetail{
		ReservationSummary: *sum,
		Lines:              lines,
		CanModify:          s.engine.CheckModifiable(actor.Role, sum.Reservation) == nil,
	}
	for _, l := range lines {
		d.TotalCents += l.TotalCents()
	}
	return d, nil
}

// ListReservations returns the actor's reservations; staff may filter
// across all clients.
func (s *Service) ListReservations(ctx context.Context, actor Actor, f repository.ReservationFilter) ([]model.ReservationSummary, error) {
	if !actor.Role.IsStaff() {
		if actor.ClientID == 0 {
			return nil, ErrForbidden
		}
		f.ClientID = actor.ClientID
	}
	return s.store.Reservations.List(ctx, f)
}

// OccupiedIntervals lists the reservations on tableID that start on day's
// date in the reference timezone, optionally leaving out excludeID (the
// reservation being edited).
func (s *Service) OccupiedIntervals(ctx context.Context, tableID uint64, day time.Time, excludeID uint64) ([]Interval, error) {
	if _, err := s.store.Tables.GetByID(ctx, tableID); err != nil {
		return nil, mapNotFound(err, "table", tableID)
	}
	from, to := s.policy.DayBounds(day)
	rs, err := s.store.Reservations.ListStartingBetween(ctx, tableID, from, to, excludeID)
	if err != nil {
		return nil, err
	}
	loc := s.policy.Location()
	out := make([]Interval, 0, len(rs))
	for _, r := range rs {
		out = append(out, Interval{ReservationID: r.ID, Start: r.StartTime.In(loc), End: r.EndTime.In(loc)})
	}
	return out, nil
}

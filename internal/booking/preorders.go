package booking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

const stockChanged = "Stock changed while saving, please try again"

// UpsertPreOrderLine sets the quantity of dishID on a reservation, creating
// the line on first use. Clients are held to the modification cutoff; staff
// are not, but every caller goes through the stock check.
func (s *Service) UpsertPreOrderLine(ctx context.Context, actor Actor, reservationID, dishID uint64, quantity int) (*model.PreOrderLine, error) {
	var saved model.PreOrderLine
	err := s.admit(ctx, "quantity", stockChanged, func(tx *repository.Tx) error {
		// Lock the dish before any other read; see saveReservation.
		dish, err := tx.Dishes.GetByIDForUpdate(ctx, dishID)
		if err != nil {
			return mapNotFound(err, "dish", dishID)
		}
		r, err := tx.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return mapNotFound(err, "reservation", reservationID)
		}
		if !actor.owns(*r) {
			return notFound("reservation", reservationID)
		}
		if err := s.engine.CheckModifiable(actor.Role, *r); err != nil {
			return err
		}

		line := model.PreOrderLine{ReservationID: reservationID, DishID: dishID, Quantity: quantity}
		existing, err := tx.PreOrders.GetByReservationAndDish(ctx, reservationID, dishID)
		switch {
		case err == nil:
			line.ID = existing.ID
		case !errors.Is(err, repository.ErrLineNotFound):
			return err
		}

		if _, err := s.allocator.ValidateLine(ctx, tx.PreOrders, *dish, line); err != nil {
			return err
		}
		if line.ID == 0 {
			if err := tx.PreOrders.Create(ctx, &line); err != nil {
				return err
			}
		} else if err := tx.PreOrders.UpdateQuantity(ctx, line.ID, line.Quantity); err != nil {
			return err
		}
		line.DishName = dish.Name
		line.PriceCents = dish.PriceCents
		saved = line
		return nil
	})
	if err != nil {
		s.log.Debug("pre-order rejected", zap.Uint64("reservation_id", reservationID), zap.Uint64("dish_id", dishID), zap.Error(err))
		return nil, err
	}
	s.log.Info("pre-order line admitted",
		zap.Uint64("reservation_id", reservationID),
		zap.Uint64("dish_id", dishID),
		zap.Int("quantity", quantity))
	return &saved, nil
}

// RemovePreOrderLine deletes one line of a reservation.
func (s *Service) RemovePreOrderLine(ctx context.Context, actor Actor, reservationID, lineID uint64) error {
	return s.store.WithTx(ctx, func(tx *repository.Tx) error {
		r, err := tx.Reservations.GetByID(ctx, reservationID)
		if err != nil {
			return mapNotFound(err, "reservation", reservationID)
		}
		if !actor.owns(*r) {
			return notFound("reservation", reservationID)
		}
		if err := s.engine.CheckModifiable(actor.Role, *r); err != nil {
			return err
		}
		line, err := tx.PreOrders.GetByID(ctx, lineID)
		if err != nil {
			return mapNotFound(err, "pre-order line", lineID)
		}
		if line.ReservationID != reservationID {
			return notFound("pre-order line", lineID)
		}
		return tx.PreOrders.Delete(ctx, lineID)
	})
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// PreOrderRepo provides persistence for pre-order lines and the stock
// accounting query used by the allocator.
type PreOrderRepo struct{ q DBTX }

const lineQuery = `SELECT l.id, l.reservation_id, l.dish_id, l.quantity, d.name, d.price_cents
	FROM preorder_lines l
	JOIN dishes d ON d.id = l.dish_id`

func (r *PreOrderRepo) one(ctx context.Context, q string, args ...any) (*model.PreOrderLine, error) {
	var l model.PreOrderLine
	err := r.q.QueryRowContext(ctx, q, args...).
		Scan(&l.ID, &l.ReservationID, &l.DishID, &l.Quantity, &l.DishName, &l.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, classify(err)
	}
	return &l, nil
}

func (r *PreOrderRepo) GetByID(ctx context.Context, id uint64) (*model.PreOrderLine, error) {
	return r.one(ctx, lineQuery+` WHERE l.id = ?`, id)
}

// GetByReservationAndDish returns the unique line for the pair.
func (r *PreOrderRepo) GetByReservationAndDish(ctx context.Context, reservationID, dishID uint64) (*model.PreOrderLine, error) {
	return r.one(ctx, lineQuery+` WHERE l.reservation_id = ? AND l.dish_id = ?`, reservationID, dishID)
}

// Create inserts l. A second line for the same (reservation, dish) yields ErrDuplicate.
func (r *PreOrderRepo) Create(ctx context.Context, l *model.PreOrderLine) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO preorder_lines (reservation_id, dish_id, quantity) VALUES (?, ?, ?)`,
		l.ReservationID, l.DishID, l.Quantity)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return nil
}

func (r *PreOrderRepo) UpdateQuantity(ctx context.Context, id uint64, quantity int) error {
	_, err := r.q.ExecContext(ctx, `UPDATE preorder_lines SET quantity = ? WHERE id = ?`, quantity, id)
	return classify(err)
}

func (r *PreOrderRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM preorder_lines WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLineNotFound
	}
	return nil
}

// ListByReservation returns the reservation's lines with dish name and price.
func (r *PreOrderRepo) ListByReservation(ctx context.Context, reservationID uint64) ([]model.PreOrderLine, error) {
	rows, err := r.q.QueryContext(ctx, lineQuery+` WHERE l.reservation_id = ? ORDER BY d.name, l.id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.PreOrderLine
	for rows.Next() {
		var l model.PreOrderLine
		if err := rows.Scan(&l.ID, &l.ReservationID, &l.DishID, &l.Quantity, &l.DishName, &l.PriceCents); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ReservedQuantity sums the dish quantity over lines whose reservation has
// not ended at liveAt, leaving out excludeLineID.
func (r *PreOrderRepo) ReservedQuantity(ctx context.Context, dishID uint64, liveAt time.Time, excludeLineID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(l.quantity), 0)
	           FROM preorder_lines l
	           JOIN reservations r ON r.id = l.reservation_id
	           WHERE l.dish_id = ? AND l.id <> ? AND r.end_time >= ?`
	var n int64
	if err := r.q.QueryRowContext(ctx, q, dishID, excludeLineID, timeArg(liveAt)).Scan(&n); err != nil {
		return 0, classify(err)
	}
	return int(n), nil
}

// CountByDish counts every line referencing the dish, past reservations included.
func (r *PreOrderRepo) CountByDish(ctx context.Context, dishID uint64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM preorder_lines WHERE dish_id = ?`, dishID).Scan(&n)
	return n, err
}

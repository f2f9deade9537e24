package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationRepo provides persistence and the interval queries used by
// the reservation engine.
type ReservationRepo struct{ q DBTX }

const reservationColumns = `r.id, r.client_id, r.table_id, r.guests_count, r.start_time, r.end_time, r.created_at`

const summaryQuery = `SELECT ` + reservationColumns + `, t.table_number, c.full_name, c.email
	FROM reservations r
	JOIN restaurant_tables t ON t.id = r.table_id
	JOIN clients c ON c.id = r.client_id`

func reservationDest(r *model.Reservation) []any {
	return []any{&r.ID, &r.ClientID, &r.TableID, &r.GuestsCount, scanTime{&r.StartTime}, scanTime{&r.EndTime}, scanTime{&r.CreatedAt}}
}

// Create inserts r and sets its ID.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	out, err := r.q.ExecContext(ctx,
		`INSERT INTO reservations (client_id, table_id, guests_count, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.ClientID, res.TableID, res.GuestsCount, timeArg(res.StartTime), timeArg(res.EndTime), timeArg(res.CreatedAt))
	if err != nil {
		return classify(err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// Update rewrites the mutable columns. created_at is never touched.
func (r *ReservationRepo) Update(ctx context.Context, res *model.Reservation) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE reservations SET client_id = ?, table_id = ?, guests_count = ?, start_time = ?, end_time = ? WHERE id = ?`,
		res.ClientID, res.TableID, res.GuestsCount, timeArg(res.StartTime), timeArg(res.EndTime), res.ID)
	return classify(err)
}

func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	var res model.Reservation
	err := r.q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id).
		Scan(reservationDest(&res)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, classify(err)
	}
	return &res, nil
}

// GetSummary returns the reservation with its table number and client name.
func (r *ReservationRepo) GetSummary(ctx context.Context, id uint64) (*model.ReservationSummary, error) {
	rows, err := r.q.QueryContext(ctx, summaryQuery+` WHERE r.id = ?`, id)
	if err != nil {
		return nil, err
	}
	out, err := scanSummaries(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrReservationNotFound
	}
	return &out[0], nil
}

// Delete hard-deletes the reservation; its pre-order lines cascade.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// FindOverlapping returns reservations on tableID whose [start_time, end_time)
// intersects [start, end), excluding excludeID, ordered by start time. An
// existing reservation overlaps when it starts before the proposed end and
// ends after the proposed start; touching intervals do not overlap.
func (r *ReservationRepo) FindOverlapping(ctx context.Context, tableID uint64, start, end time.Time, excludeID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
	           FROM reservations r
	           WHERE r.table_id = ? AND r.id <> ? AND NOT (r.end_time <= ? OR r.start_time >= ?)
	           ORDER BY r.start_time, r.id`
	rows, err := r.q.QueryContext(ctx, q, tableID, excludeID, timeArg(start), timeArg(end))
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(reservationDest(&res)...); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ListStartingBetween returns reservations on tableID whose start falls in
// [from, to), excluding excludeID. Used for the occupied-slots view.
func (r *ReservationRepo) ListStartingBetween(ctx context.Context, tableID uint64, from, to time.Time, excludeID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + `
	           FROM reservations r
	           WHERE r.table_id = ? AND r.id <> ? AND r.start_time >= ? AND r.start_time < ?
	           ORDER BY r.start_time, r.id`
	rows, err := r.q.QueryContext(ctx, q, tableID, excludeID, timeArg(from), timeArg(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(reservationDest(&res)...); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// CountLiveByTable counts reservations on the table with end_time >= now.
func (r *ReservationRepo) CountLiveByTable(ctx context.Context, tableID uint64, now time.Time) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservations WHERE table_id = ? AND end_time >= ?`, tableID, timeArg(now)).Scan(&n)
	return n, err
}

// CountByClient counts every reservation of the client.
func (r *ReservationRepo) CountByClient(ctx context.Context, clientID uint64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE client_id = ?`, clientID).Scan(&n)
	return n, err
}

// ReservationFilter narrows List. Zero values do not filter. From and To
// bound start_time as [From, To).
type ReservationFilter struct {
	TableID  uint64
	ClientID uint64
	From     time.Time
	To       time.Time
}

// List returns reservation summaries matching f, most recent start first.
func (r *ReservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.ReservationSummary, error) {
	var (
		where []string
		args  []any
	)
	if f.TableID != 0 {
		where = append(where, "r.table_id = ?")
		args = append(args, f.TableID)
	}
	if f.ClientID != 0 {
		where = append(where, "r.client_id = ?")
		args = append(args, f.ClientID)
	}
	if !f.From.IsZero() {
		where = append(where, "r.start_time >= ?")
		args = append(args, timeArg(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "r.start_time < ?")
		args = append(args, timeArg(f.To))
	}
	q := summaryQuery
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY r.start_time DESC, r.id DESC"
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]model.ReservationSummary, error) {
	defer rows.Close()
	var out []model.ReservationSummary
	for rows.Next() {
		var s model.ReservationSummary
		dest := append(reservationDest(&s.Reservation), &s.TableNumber, &s.ClientName, &s.ClientEmail)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

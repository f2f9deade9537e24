package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// DishRepo provides persistence for the dish catalog.
type DishRepo struct {
	q       DBTX
	dialect Dialect
}

const dishColumns = `id, name, description, price_cents, available_quantity`

func scanDish(s interface{ Scan(...any) error }, d *model.Dish) error {
	var desc sql.NullString
	if err := s.Scan(&d.ID, &d.Name, &desc, &d.PriceCents, &d.AvailableQuantity); err != nil {
		return err
	}
	d.Description = desc.String
	return nil
}

func (r *DishRepo) Create(ctx context.Context, d *model.Dish) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO dishes (name, description, price_cents, available_quantity) VALUES (?, ?, ?, ?)`,
		d.Name, nullString(d.Description), d.PriceCents, d.AvailableQuantity)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

func (r *DishRepo) Update(ctx context.Context, d *model.Dish) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE dishes SET name = ?, description = ?, price_cents = ?, available_quantity = ? WHERE id = ?`,
		d.Name, nullString(d.Description), d.PriceCents, d.AvailableQuantity, d.ID)
	return classify(err)
}

func (r *DishRepo) GetByID(ctx context.Context, id uint64) (*model.Dish, error) {
	return r.get(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id = ?`, id)
}

// GetByIDForUpdate locks the dish row so concurrent pre-order writes for
// the same dish run their capacity check one at a time.
func (r *DishRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Dish, error) {
	return r.get(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id = ?`+r.dialect.lockClause(), id)
}

func (r *DishRepo) get(ctx context.Context, q string, id uint64) (*model.Dish, error) {
	var d model.Dish
	if err := scanDish(r.q.QueryRowContext(ctx, q, id), &d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDishNotFound
		}
		return nil, classify(err)
	}
	return &d, nil
}

func (r *DishRepo) List(ctx context.Context) ([]model.Dish, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+dishColumns+` FROM dishes ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Dish
	for rows.Next() {
		var d model.Dish
		if err := scanDish(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DishRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM dishes WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDishNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableRepo provides persistence for restaurant tables.
type TableRepo struct {
	q       DBTX
	dialect Dialect
}

const tableColumns = `id, table_number, seats`

// Create inserts t and sets its ID. A taken table number yields ErrDuplicate.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO restaurant_tables (table_number, seats) VALUES (?, ?)`, t.Number, t.Seats)
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// Update overwrites the number and seats of an existing table.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE restaurant_tables SET table_number = ?, seats = ? WHERE id = ?`, t.Number, t.Seats, t.ID)
	return classify(err)
}

// GetByID returns ErrTableNotFound when no row matches.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	return r.get(ctx, `SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ?`, id)
}

// GetByIDForUpdate reads the table and locks its row until the surrounding
// transaction ends. Every reservation write on the table takes this lock
// first, which serialises overlap checks per table.
func (r *TableRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Table, error) {
	return r.get(ctx, `SELECT `+tableColumns+` FROM restaurant_tables WHERE id = ?`+r.dialect.lockClause(), id)
}

func (r *TableRepo) get(ctx context.Context, q string, id uint64) (*model.Table, error) {
	var t model.Table
	err := r.q.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Number, &t.Seats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, classify(err)
	}
	return &t, nil
}

// List returns every table ordered by number.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+tableColumns+` FROM restaurant_tables ORDER BY table_number, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Table
	for rows.Next() {
		var t model.Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Seats); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Delete removes the table. Returns ErrTableNotFound when nothing was deleted.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM restaurant_tables WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTableNotFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ClientRepo provides persistence for clients. E-mails are stored lower-cased.
type ClientRepo struct{ q DBTX }

const clientColumns = `id, user_id, full_name, email, created_at`

func scanClient(s interface{ Scan(...any) error }, c *model.Client) error {
	var uid sql.NullInt64
	if err := s.Scan(&c.ID, &uid, &c.FullName, &c.Email, scanTime{&c.CreatedAt}); err != nil {
		return err
	}
	c.UserID = nil
	if uid.Valid {
		v := uint64(uid.Int64)
		c.UserID = &v
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts c. A taken e-mail yields ErrDuplicate.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) error {
	c.Email = NormalizeEmail(c.Email)
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO clients (user_id, full_name, email, created_at) VALUES (?, ?, ?, ?)`,
		c.UserID, c.FullName, c.Email, timeArg(c.CreatedAt))
	if err != nil {
		return classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, id uint64) (*model.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
}

func (r *ClientRepo) GetByEmail(ctx context.Context, email string) (*model.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE email = ?`, NormalizeEmail(email))
}

// GetByUserID returns the client profile linked to a login.
func (r *ClientRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Client, error) {
	return r.get(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id = ?`, userID)
}

func (r *ClientRepo) get(ctx context.Context, q string, arg any) (*model.Client, error) {
	var c model.Client
	if err := scanClient(r.q.QueryRowContext(ctx, q, arg), &c); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, classify(err)
	}
	return &c, nil
}

// LinkUser attaches a login to an existing client that has none.
func (r *ClientRepo) LinkUser(ctx context.Context, clientID, userID uint64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE clients SET user_id = ? WHERE id = ? AND user_id IS NULL`, userID, clientID)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClientNotFound
	}
	return nil
}

// List returns clients ordered by name, optionally filtered by a substring
// of name or e-mail.
func (r *ClientRepo) List(ctx context.Context, search string) ([]model.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients`
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		q += ` WHERE full_name LIKE ? OR email LIKE ?`
		like := "%" + s + "%"
		args = append(args, like, strings.ToLower(like))
	}
	q += ` ORDER BY full_name, id`
	rows, err := r.q.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ClientRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrClientNotFound
	}
	return nil
}

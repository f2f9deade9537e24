package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/utils"
)

// UserRepo persists login accounts.
type UserRepo struct{ q DBTX }

// ErrEmailExists is returned by Create when the e-mail is taken.
var ErrEmailExists = errors.New("email already exists")

// Create hashes password with the given bcrypt cost, inserts the user and
// returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password string, role model.Role, cost int, now time.Time) (uint64, error) {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, role, is_active, created_at) VALUES (?,?,?,?,?)",
		NormalizeEmail(email), hash, string(role), true, timeArg(now))
	if err != nil {
		if err = classify(err); errors.Is(err, ErrDuplicate) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SetPassword replaces the password hash and role of an existing account.
func (r *UserRepo) SetPassword(ctx context.Context, id uint64, password string, role model.Role, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, "UPDATE users SET password_hash=?, role=?, is_active=? WHERE id=?", hash, string(role), true, id)
	return classify(err)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, "SELECT id,email,password_hash,role,is_active,created_at FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.get(ctx, "SELECT id,email,password_hash,role,is_active,created_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.q.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive, scanTime{&u.CreatedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	// Unknown stored roles degrade to the least privileged one.
	if u.Role, _ = model.ParseRole(role); u.Role == "" {
		u.Role = model.RoleClient
	}
	return &u, nil
}

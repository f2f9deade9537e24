package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// MinPasswordLength is enforced on registration and staff provisioning.
const MinPasswordLength = 8

// Registration is a self-service sign-up.
type Registration struct {
	Email    string
	Password string
	FullName string
}

// RegisterClient creates a client login together with its client profile.
// When staff already created a client with the same e-mail, the new login
// is linked to that profile instead of creating a second one.
func (s *Service) RegisterClient(ctx context.Context, in Registration, bcryptCost int) (*model.User, *model.Client, error) {
	email := repository.NormalizeEmail(in.Email)
	verr := &ValidationError{}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "Enter a valid email address")
	}
	if len(in.Password) < MinPasswordLength {
		verr.Add("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if strings.TrimSpace(in.FullName) == "" {
		verr.Add("full_name", "Full name is required")
	}
	if !verr.Empty() {
		return nil, nil, verr
	}

	var (
		user   *model.User
		client *model.Client
	)
	err := s.store.WithTx(ctx, func(tx *repository.Tx) error {
		now := s.policy.Now()
		uid, err := tx.Users.Create(ctx, email, in.Password, model.RoleClient, bcryptCost, now)
		if err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return invalid("email", "A user with this email already exists")
			}
			return err
		}
		if user, err = tx.Users.GetByID(ctx, uid); err != nil {
			return err
		}

		existing, err := tx.Clients.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if existing.UserID != nil {
				return invalid("email", "This client profile is already linked to another account")
			}
			if err := tx.Clients.LinkUser(ctx, existing.ID, uid); err != nil {
				return err
			}
			existing.UserID = &uid
			client = existing
			return nil
		case !errors.Is(err, repository.ErrClientNotFound):
			return err
		}

		client = &model.Client{UserID: &uid, FullName: strings.TrimSpace(in.FullName), Email: email, CreatedAt: now}
		return tx.Clients.Create(ctx, client)
	})
	if err != nil {
		return nil, nil, duplicateAs(err, "email", "A user with this email already exists")
	}
	return user, client, nil
}

// ProvisionStaff creates an operator or admin login, or resets the password
// and role of an existing one. created reports which happened.
func (s *Service) ProvisionStaff(ctx context.Context, email, password string, role model.Role, bcryptCost int) (user *model.User, created bool, err error) {
	if !role.IsStaff() {
		return nil, false, invalid("role", "Role must be operator or admin")
	}
	if len(password) < MinPasswordLength {
		return nil, false, invalid("password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	err = s.store.WithTx(ctx, func(tx *repository.Tx) error {
		u, err := tx.Users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			if err := tx.Users.SetPassword(ctx, u.ID, password, role, bcryptCost); err != nil {
				return err
			}
			user, err = tx.Users.GetByID(ctx, u.ID)
			return err
		case !errors.Is(err, repository.ErrUserNotFound):
			return err
		}
		uid, err := tx.Users.Create(ctx, email, password, role, bcryptCost, s.policy.Now())
		if err != nil {
			return err
		}
		created = true
		user, err = tx.Users.GetByID(ctx, uid)
		return err
	})
	return user, created, err
}

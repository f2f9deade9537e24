package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// TableInput carries the editable fields of a table.
type TableInput struct {
	Number string
	Seats  int
}

func (in TableInput) validate() *ValidationError {
	verr := &ValidationError{}
	n := strings.TrimSpace(in.Number)
	if n == "" {
		verr.Add("table_number", "Table number is required")
	} else if utf8.RuneCountInString(n) > 50 {
		verr.Add("table_number", "Table number must be at most 50 characters")
	}
	if in.Seats < 1 || in.Seats > model.MaxTableSeats {
		verr.Add("seats", fmt.Sprintf("A table seats between 1 and %d guests", model.MaxTableSeats))
	}
	return verr
}

func (s *Service) ListTables(ctx context.Context) ([]model.Table, error) {
	return s.store.Tables.List(ctx)
}

func (s *Service) GetTable(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := s.store.Tables.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "table", id)
	}
	return t, nil
}

func (s *Service) CreateTable(ctx context.Context, in TableInput) (*model.Table, error) {
	if verr := in.validate(); !verr.Empty() {
		return nil, verr
	}
	t := &model.Table{Number: strings.TrimSpace(in.Number), Seats: in.Seats}
	if err := s.store.Tables.Create(ctx, t); err != nil {
		return nil, duplicateAs(err, "table_number", "A table with this number already exists")
	}
	return t, nil
}

func (s *Service) UpdateTable(ctx context.Context, id uint64, in TableInput) (*model.Table, error) {
	if verr := in.validate(); !verr.Empty() {
		return nil, verr
	}
	t := &model.Table{ID: id, Number: strings.TrimSpace(in.Number), Seats: in.Seats}
	err := s.store.WithTx(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Tables.GetByIDForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "table", id)
		}
		return tx.Tables.Update(ctx, t)
	})
	if err != nil {
		return nil, duplicateAs(err, "table_number", "A table with this number already exists")
	}
	return t, nil
}

// DeleteTable removes a table with no live reservations. Its past
// reservations are removed with it.
func (s *Service) DeleteTable(ctx context.Context, id uint64) error {
	return s.store.WithTx(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Tables.GetByIDForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "table", id)
		}
		if err := s.engine.GuardTableDelete(ctx, tx.Reservations, id); err != nil {
			return err
		}
		return tx.Tables.Delete(ctx, id)
	})
}

// DishInput carries the editable fields of a dish.
type DishInput struct {
	Name              string
	Description       string
	PriceCents        int64
	AvailableQuantity int
}

func (in DishInput) validate() *ValidationError {
	verr := &ValidationError{}
	n := strings.TrimSpace(in.Name)
	if n == "" {
		verr.Add("name", "Name is required")
	} else if utf8.RuneCountInString(n) > 50 {
		verr.Add("name", "Name must be at most 50 characters")
	}
	if in.PriceCents < 0 {
		verr.Add("price_cents", "Price cannot be negative")
	}
	if in.AvailableQuantity < 0 {
		verr.Add("available_quantity", "Available quantity cannot be negative")
	}
	return verr
}

// DishStock is a dish with the quantity still free for pre-orders.
type DishStock struct {
	model.Dish
	Remaining int
}

// ListDishes returns the catalog with live remaining stock per dish.
func (s *Service) ListDishes(ctx context.Context) ([]DishStock, error) {
	dishes, err := s.store.Dishes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DishStock, 0, len(dishes))
	for _, d := range dishes {
		left, err := s.allocator.Available(ctx, s.store.PreOrders, d, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, DishStock{Dish: d, Remaining: left})
	}
	return out, nil
}

func (s *Service) CreateDish(ctx context.Context, in DishInput) (*model.Dish, error) {
	if verr := in.validate(); !verr.Empty() {
		return nil, verr
	}
	d := &model.Dish{
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		PriceCents:        in.PriceCents,
		AvailableQuantity: in.AvailableQuantity,
	}
	if err := s.store.Dishes.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDish edits a dish. Lowering the stock below what live pre-orders
// already hold is allowed; it only blocks further allocation.
func (s *Service) UpdateDish(ctx context.Context, id uint64, in DishInput) (*model.Dish, error) {
	if verr := in.validate(); !verr.Empty() {
		return nil, verr
	}
	d := &model.Dish{
		ID:                id,
		Name:              strings.TrimSpace(in.Name),
		Description:       strings.TrimSpace(in.Description),
		PriceCents:        in.PriceCents,
		AvailableQuantity: in.AvailableQuantity,
	}
	err := s.store.WithTx(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Dishes.GetByIDForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "dish", id)
		}
		return tx.Dishes.Update(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDish removes a dish that no pre-order line references.
func (s *Service) DeleteDish(ctx context.Context, id uint64) error {
	return s.store.WithTx(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Dishes.GetByIDForUpdate(ctx, id); err != nil {
			return mapNotFound(err, "dish", id)
		}
		if err := s.allocator.GuardDishDelete(ctx, tx.PreOrders, id); err != nil {
			return err
		}
		return tx.Dishes.Delete(ctx, id)
	})
}

// ClientInput carries the fields of a client created by staff.
type ClientInput struct {
	FullName string
	Email    string
}

func (in ClientInput) validate() *ValidationError {
	verr := &ValidationError{}
	if strings.TrimSpace(in.FullName) == "" {
		verr.Add("full_name", "Full name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		verr.Add("email", "Enter a valid email address")
	}
	return verr
}

func (s *Service) ListClients(ctx context.Context, search string) ([]model.Client, error) {
	return s.store.Clients.List(ctx, search)
}

func (s *Service) GetClient(ctx context.Context, id uint64) (*model.Client, error) {
	c, err := s.store.Clients.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "client", id)
	}
	return c, nil
}

// ClientForUser resolves the client profile of a login. It never creates one.
func (s *Service) ClientForUser(ctx context.Context, userID uint64) (*model.Client, error) {
	c, err := s.store.Clients.GetByUserID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, "client profile of user", userID)
	}
	return c, nil
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (*model.Client, error) {
	if verr := in.validate(); !verr.Empty() {
		return nil, verr
	}
	c := &model.Client{
		FullName:  strings.TrimSpace(in.FullName),
		Email:     repository.NormalizeEmail(in.Email),
		CreatedAt: s.policy.Now(),
	}
	if err := s.store.Clients.Create(ctx, c); err != nil {
		return nil, duplicateAs(err, "email", "A client with this email already exists")
	}
	return c, nil
}

// DeleteClient removes a client that has never had a reservation.
func (s *Service) DeleteClient(ctx context.Context, id uint64) error {
	return s.store.WithTx(ctx, func(tx *repository.Tx) error {
		if _, err := tx.Clients.GetByID(ctx, id); err != nil {
			return mapNotFound(err, "client", id)
		}
		if err := s.engine.GuardClientDelete(ctx, tx.Reservations, id); err != nil {
			return err
		}
		return tx.Clients.Delete(ctx, id)
	})
}

func duplicateAs(err error, field, msg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return invalid(field, msg)
	}
	return err
}

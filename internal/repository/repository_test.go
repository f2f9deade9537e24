package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-table-reservation/internal/database"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

var base = time.Date(2025, time.June, 3, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.MigrateUp(database.Config{Driver: "sqlite"}, db))
	return repository.NewStore(db, repository.SQLite)
}

type seed struct {
	table  model.Table
	client model.Client
}

func seedBasics(t *testing.T, s *repository.Store) seed {
	t.Helper()
	ctx := context.Background()
	sd := seed{
		table:  model.Table{Number: "A1", Seats: 4},
		client: model.Client{FullName: "Anna", Email: " Anna@Example.com ", CreatedAt: base},
	}
	require.NoError(t, s.Tables.Create(ctx, &sd.table))
	require.NoError(t, s.Clients.Create(ctx, &sd.client))
	return sd
}

func reserve(t *testing.T, s *repository.Store, sd seed, start time.Time, minutes int) model.Reservation {
	t.Helper()
	r := model.Reservation{
		ClientID: sd.client.ID, TableID: sd.table.ID, GuestsCount: 2,
		StartTime: start, EndTime: start.Add(time.Duration(minutes) * time.Minute), CreatedAt: base,
	}
	require.NoError(t, s.Reservations.Create(context.Background(), &r))
	return r
}

func TestReservations_FindOverlappingIsHalfOpen(t *testing.T) {
	s := newStore(t)
	sd := seedBasics(t, s)
	ctx := context.Background()
	r := reserve(t, s, sd, base, 60)

	got, err := s.Reservations.FindOverlapping(ctx, sd.table.ID, base.Add(30*time.Minute), base.Add(90*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r.ID, got[0].ID)
	assert.True(t, got[0].StartTime.Equal(base))

	got, err = s.Reservations.FindOverlapping(ctx, sd.table.ID, base.Add(60*time.Minute), base.Add(90*time.Minute), 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Reservations.FindOverlapping(ctx, sd.table.ID, base.Add(-30*time.Minute), base, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Reservations.FindOverlapping(ctx, sd.table.ID, base, base.Add(time.Hour), r.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReservations_CountsAndSummary(t *testing.T) {
	s := newStore(t)
	sd := seedBasics(t, s)
	ctx := context.Background()
	r := reserve(t, s, sd, base, 30)

	n, err := s.Reservations.CountLiveByTable(ctx, sd.table.ID, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.Reservations.CountLiveByTable(ctx, sd.table.ID, base.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.Reservations.CountByClient(ctx, sd.client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sum, err := s.Reservations.GetSummary(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "A1", sum.TableNumber)
	assert.Equal(t, "anna@example.com", sum.ClientEmail)

	_, err = s.Reservations.GetByID(ctx, r.ID+100)
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestReservations_ListFilters(t *testing.T) {
	s := newStore(t)
	sd := seedBasics(t, s)
	ctx := context.Background()
	early := reserve(t, s, sd, base, 30)
	late := reserve(t, s, sd, base.Add(24*time.Hour), 30)

	all, err := s.Reservations.List(ctx, repository.ReservationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, late.ID, all[0].ID)

	day, err := s.Reservations.List(ctx, repository.ReservationFilter{From: base, To: base.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, early.ID, day[0].ID)

	none, err := s.Reservations.List(ctx, repository.ReservationFilter{ClientID: sd.client.ID + 1})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPreOrders_ReservedQuantity(t *testing.T) {
	s := newStore(t)
	sd := seedBasics(t, s)
	ctx := context.Background()
	dish := model.Dish{Name: "Soup", PriceCents: 300, AvailableQuantity: 10}
	require.NoError(t, s.Dishes.Create(ctx, &dish))

	past := reserve(t, s, sd, base.Add(-2*time.Hour), 30)
	live := reserve(t, s, sd, base, 30)
	pastLine := model.PreOrderLine{ReservationID: past.ID, DishID: dish.ID, Quantity: 4}
	liveLine := model.PreOrderLine{ReservationID: live.ID, DishID: dish.ID, Quantity: 3}
	require.NoError(t, s.PreOrders.Create(ctx, &pastLine))
	require.NoError(t, s.PreOrders.Create(ctx, &liveLine))

	n, err := s.PreOrders.ReservedQuantity(ctx, dish.ID, base, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.PreOrders.ReservedQuantity(ctx, dish.ID, base, liveLine.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = s.PreOrders.CountByDish(ctx, dish.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dup := model.PreOrderLine{ReservationID: live.ID, DishID: dish.ID, Quantity: 1}
	assert.ErrorIs(t, s.PreOrders.Create(ctx, &dup), repository.ErrDuplicate)

	lines, err := s.PreOrders.ListByReservation(ctx, live.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Soup", lines[0].DishName)
	assert.Equal(t, int64(900), lines[0].TotalCents())
}

func TestDelete_ForeignKeys(t *testing.T) {
	s := newStore(t)
	sd := seedBasics(t, s)
	ctx := context.Background()
	dish := model.Dish{Name: "Tea", AvailableQuantity: 1}
	require.NoError(t, s.Dishes.Create(ctx, &dish))
	r := reserve(t, s, sd, base, 30)
	line := model.PreOrderLine{ReservationID: r.ID, DishID: dish.ID, Quantity: 1}
	require.NoError(t, s.PreOrders.Create(ctx, &line))

	assert.ErrorIs(t, s.Dishes.Delete(ctx, dish.ID), repository.ErrReferenced)
	assert.ErrorIs(t, s.Clients.Delete(ctx, sd.client.ID), repository.ErrReferenced)

	require.NoError(t, s.Tables.Delete(ctx, sd.table.ID))
	_, err := s.Reservations.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, repository.ErrReservationNotFound)
	_, err = s.PreOrders.GetByID(ctx, line.ID)
	assert.ErrorIs(t, err, repository.ErrLineNotFound)
	assert.NoError(t, s.Dishes.Delete(ctx, dish.ID))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *repository.Tx) error {
		if err := tx.Tables.Create(ctx, &model.Table{Number: "T", Seats: 2}); err != nil {
			return err
		}
		return tx.Tables.Create(ctx, &model.Table{Number: "T", Seats: 3})
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	tables, err := s.Tables.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestUsersAndTokens(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	uid, err := s.Users.Create(ctx, "Ops@Example.com", "password1", model.RoleOperator, 4, base)
	require.NoError(t, err)
	_, err = s.Users.Create(ctx, "ops@example.com", "password2", model.RoleClient, 4, base)
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	u, err := s.Users.GetByEmail(ctx, "OPS@example.com")
	require.NoError(t, err)
	assert.Equal(t, uid, u.ID)
	assert.Equal(t, model.RoleOperator, u.Role)
	assert.True(t, u.IsActive)

	require.NoError(t, s.Tokens.StoreRefresh(ctx, uid, "h1", base.Add(time.Hour), base))
	got, err := s.Tokens.ValidateRefresh(ctx, "h1", base.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	_, err = s.Tokens.ValidateRefresh(ctx, "h1", base.Add(2*time.Hour))
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)

	require.NoError(t, s.Tokens.RevokeByHash(ctx, "h1", base.Add(2*time.Minute)))
	_, err = s.Tokens.ValidateRefresh(ctx, "h1", base.Add(3*time.Minute))
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)

	_, err = s.Tokens.ValidateRefresh(ctx, "missing", base)
	assert.ErrorIs(t, err, repository.ErrTokenInvalid)
}

func TestClients_Search(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, c := range []model.Client{
		{FullName: "Anna Petrova", Email: "anna@example.com", CreatedAt: base},
		{FullName: "Boris Ivanov", Email: "boris@example.com", CreatedAt: base},
	} {
		require.NoError(t, s.Clients.Create(ctx, &c))
	}

	found, err := s.Clients.List(ctx, "Boris")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "boris@example.com", found[0].Email)

	all, err := s.Clients.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

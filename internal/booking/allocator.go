package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// AllocationCounter sums pre-ordered quantities of a dish over lines whose
// reservation is live at liveAt, leaving out the line excludeLineID.
type AllocationCounter interface {
	ReservedQuantity(ctx context.Context, dishID uint64, liveAt time.Time, excludeLineID uint64) (int, error)
}

// DishReferenceCounter counts pre-order lines referencing a dish regardless
// of whether their reservation is live.
type DishReferenceCounter interface {
	CountByDish(ctx context.Context, dishID uint64) (int, error)
}

// Allocator admits pre-order quantities against dish stock.
type Allocator struct {
	policy *calendar.Policy
}

func NewAllocator(policy *calendar.Policy) *Allocator {
	return &Allocator{policy: policy}
}

// Available returns the stock of dish not held by live lines other than
// excludeLineID. It never goes below zero.
func (a *Allocator) Available(ctx context.Context, counter AllocationCounter, dish model.Dish, excludeLineID uint64) (int, error) {
	reserved, err := counter.ReservedQuantity(ctx, dish.ID, a.policy.Now(), excludeLineID)
	if err != nil {
		return 0, fmt.Errorf("sum reserved quantity: %w", err)
	}
	available := dish.AvailableQuantity - reserved
	if available < 0 {
		available = 0
	}
	return available, nil
}

// ValidateLine admits line against dish. A line with a non-zero ID is an
// update: its stored quantity is about to be replaced, so it is left out of
// the reserved sum rather than subtracted twice. The computed availability
// is returned in both outcomes.
func (a *Allocator) ValidateLine(ctx context.Context, counter AllocationCounter, dish model.Dish, line model.PreOrderLine) (int, error) {
	if line.Quantity <= 0 {
		return 0, invalid("quantity", "Quantity must be greater than 0")
	}
	available, err := a.Available(ctx, counter, dish, line.ID)
	if err != nil {
		return 0, err
	}
	if line.Quantity > available {
		return available, invalid("quantity", fmt.Sprintf("Not enough %q in stock. Available: %d, requested: %d", dish.Name, available, line.Quantity))
	}
	return available, nil
}

// GuardDishDelete blocks deleting a dish referenced by any pre-order line.
func (a *Allocator) GuardDishDelete(ctx context.Context, counter DishReferenceCounter, dishID uint64) error {
	n, err := counter.CountByDish(ctx, dishID)
	if err != nil {
		return fmt.Errorf("count dish pre-orders: %w", err)
	}
	if n > 0 {
		return &IntegrityError{Entity: "dish", Dependents: "pre-order lines", Count: n}
	}
	return nil
}

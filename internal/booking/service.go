package booking

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/restaurant-table-reservation/internal/calendar"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
	"github.com/iliyamo/restaurant-table-reservation/internal/queue"
	"github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// EventPublisher receives reservation events after their write committed.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// Actor is the authenticated caller of a service operation. ClientID is the
// caller's client profile and is only meaningful for RoleClient.
type Actor struct {
	UserID   uint64
	Role     model.Role
	ClientID uint64
}

// owns reports whether the actor may see r: staff see everything, clients
// only their own reservations.
func (a Actor) owns(r model.Reservation) bool {
	return a.Role.IsStaff() || (a.ClientID != 0 && r.ClientID == a.ClientID)
}

// Service is the only component that commits multi-entity writes. Every
// admission runs the engine or allocator checks and the write inside one
// store transaction.
type Service struct {
	store     *repository.Store
	policy    *calendar.Policy
	engine    *Engine
	allocator *Allocator
	events    EventPublisher
	log       *zap.Logger
}

// NewService wires the admission components. A nil publisher drops events
// and a nil logger discards logs.
func NewService(store *repository.Store, policy *calendar.Policy, events EventPublisher, log *zap.Logger) *Service {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:     store,
		policy:    policy,
		engine:    NewEngine(policy),
		allocator: NewAllocator(policy),
		events:    events,
		log:       log,
	}
}

// Policy exposes the calendar policy so callers offer exactly the dates the
// engine admits.
func (s *Service) Policy() *calendar.Policy { return s.policy }

// Engine exposes the reservation rules, e.g. for CanModifyOrCancel in views.
func (s *Service) Engine() *Engine { return s.engine }

// admit runs fn in a transaction. When the store aborts it because a
// concurrent writer touched the same rows, fn is retried once against the
// fresh state; a second abort is reported as a validation failure on field.
func (s *Service) admit(ctx context.Context, field, conflictMsg string, fn func(tx *repository.Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	if isConcurrentWrite(err) {
		s.log.Debug("retrying admission after concurrent write", zap.String("field", field), zap.Error(err))
		err = s.store.WithTx(ctx, fn)
	}
	if isConcurrentWrite(err) {
		s.log.Info("admission lost race", zap.String("field", field), zap.Error(err))
		return invalid(field, conflictMsg)
	}
	return err
}

func isConcurrentWrite(err error) bool {
	return errors.Is(err, repository.ErrSerialization) || errors.Is(err, repository.ErrDuplicate)
}

// publishTimeout caps how long a committed write waits on the event broker.
const publishTimeout = 3 * time.Second

func (s *Service) publish(ctx context.Context, t queue.EventType, r model.Reservation, actor Actor) {
	ev := queue.NewReservationEvent(t, r, actor.Role, s.policy.Now(), s.policy.Location())
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish reservation event failed", zap.String("type", string(t)), zap.Uint64("reservation_id", r.ID), zap.Error(err))
	}
}

// mapNotFound turns repository lookup sentinels into ErrNotFound.
func mapNotFound(err error, kind string, id uint64) error {
	switch {
	case errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, repository.ErrDishNotFound),
		errors.Is(err, repository.ErrClientNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrLineNotFound):
		return notFound(kind, id)
	}
	return err
}

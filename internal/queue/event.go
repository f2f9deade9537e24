// Package queue defines the reservation events exchanged over RabbitMQ,
// the publisher used by the booking service and the audit consumer.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationQueue is the durable queue reservation events are routed to.
const ReservationQueue = "reservation.events"

// EventType names what happened to a reservation.
type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationUpdated   EventType = "reservation.updated"
	ReservationCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after a reservation write commits. It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	ClientID      uint64    `json:"client_id"`
	TableID       uint64    `json:"table_id"`
	GuestsCount   int       `json:"guests_count"`
	StartsAt      string    `json:"starts_at"`
	EndsAt        string    `json:"ends_at"`
	ActorRole     string    `json:"actor_role"`
	OccurredAt    string    `json:"occurred_at"`
}

// NewReservationEvent snapshots r. Times are rendered in loc.
func NewReservationEvent(t EventType, r model.Reservation, actor model.Role, now time.Time, loc *time.Location) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          t,
		ReservationID: r.ID,
		ClientID:      r.ClientID,
		TableID:       r.TableID,
		GuestsCount:   r.GuestsCount,
		StartsAt:      r.StartTime.In(loc).Format(time.RFC3339),
		EndsAt:        r.EndTime.In(loc).Format(time.RFC3339),
		ActorRole:     string(actor),
		OccurredAt:    now.In(loc).Format(time.RFC3339),
	}
}

package model

import "time"

// Reservation books a table for a client over the half-open interval
// [StartTime, EndTime). Times are absolute instants; they are persisted in
// UTC and rendered in the restaurant's reference timezone.
//
// Fields:
//  ID          – primary key identifier.
//  ClientID    – client the table is booked for.
//  TableID     – booked table.
//  GuestsCount – party size, positive and at most the table's seats.
//  StartTime   – inclusive start.
//  EndTime     – exclusive end, strictly after StartTime.
//  CreatedAt   – set once on insert.
type Reservation struct {
    ID          uint64    // reservations.id
    ClientID    uint64    // reservations.client_id
    TableID     uint64    // reservations.table_id
    GuestsCount int       // reservations.guests_count
    StartTime   time.Time // reservations.start_time
    EndTime     time.Time // reservations.end_time
    CreatedAt   time.Time // reservations.created_at
}

// IsLive reports whether the reservation still counts against table and
// dish capacity, i.e. it has not ended yet.
func (r Reservation) IsLive(now time.Time) bool {
    return !r.EndTime.Before(now)
}

// IsActive reports whether the table is currently occupied by r.
func (r Reservation) IsActive(now time.Time) bool {
    return !now.Before(r.StartTime) && !now.After(r.EndTime)
}

// Overlaps reports whether r intersects [start, end) as half-open intervals.
// Touching intervals (one ends exactly when the other starts) do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
    return r.StartTime.Before(end) && r.EndTime.After(start)
}

// ReservationSummary is a reservation joined with the labels needed by
// listings (table number and client name).
type ReservationSummary struct {
    Reservation
    TableNumber string
    ClientName  string
    ClientEmail string
}

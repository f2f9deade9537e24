package model

import "time"

// Client is the person a reservation is made for. A client may exist
// without a login (created by an operator) in which case UserID is nil.
type Client struct {
    ID        uint64    // clients.id
    UserID    *uint64   // clients.user_id (nullable)
    FullName  string    // clients.full_name
    Email     string    // clients.email, always lower-cased
    CreatedAt time.Time // clients.created_at
}

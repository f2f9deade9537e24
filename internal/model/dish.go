package model

// Dish is a menu item that can be pre-ordered against a reservation.
// AvailableQuantity is the total stock, not what remains: the remaining
// capacity is derived from live pre-order lines at admission time.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name.
//  Description       – optional longer text.
//  PriceCents        – unit price in cents, never negative.
//  AvailableQuantity – total stock.
type Dish struct {
    ID                uint64 // dishes.id
    Name              string // dishes.name
    Description       string // dishes.description
    PriceCents        int64  // dishes.price_cents
    AvailableQuantity int    // dishes.available_quantity
}

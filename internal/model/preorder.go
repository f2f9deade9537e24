package model

// PreOrderLine allocates Quantity units of a dish to a reservation. There
// is at most one line per (reservation, dish) pair.
type PreOrderLine struct {
    ID            uint64 // preorder_lines.id
    ReservationID uint64 // preorder_lines.reservation_id
    DishID        uint64 // preorder_lines.dish_id
    Quantity      int    // preorder_lines.quantity

    // Populated by joins for display only.
    DishName   string
    PriceCents int64
}

// TotalCents returns the line price.
func (l PreOrderLine) TotalCents() int64 {
    return l.PriceCents * int64(l.Quantity)
}

package model

// MaxTableSeats is the hard ceiling on a table's capacity.
const MaxTableSeats = 4

// Table is a physical restaurant table that reservations are placed on.
//
// Fields:
//  ID     – primary key identifier.
//  Number – unique human facing label (e.g. "12" or "T-3").
//  Seats  – capacity, between 1 and MaxTableSeats inclusive.
type Table struct {
    ID     uint64 // restaurant_tables.id
    Number string // restaurant_tables.table_number
    Seats  int    // restaurant_tables.seats
}

package handler

import (
    "time"

    "github.com/iliyamo/restaurant-table-reservation/internal/booking"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
)

type tableJSON struct {
    ID     uint64 `json:"id"`
    Number string `json:"table_number"`
    Seats  int    `json:"seats"`
}

func tableView(t model.Table) tableJSON {
    return tableJSON{ID: t.ID, Number: t.Number, Seats: t.Seats}
}

type dishJSON struct {
    ID                uint64 `json:"id"`
    Name              string `json:"name"`
    Description       string `json:"description,omitempty"`
    PriceCents        int64  `json:"price_cents"`
    AvailableQuantity int    `json:"available_quantity"`
    Remaining         *int   `json:"remaining,omitempty"`
}

func dishView(d model.Dish) dishJSON {
    return dishJSON{ID: d.ID, Name: d.Name, Description: d.Description, PriceCents: d.PriceCents, AvailableQuantity: d.AvailableQuantity}
}

func dishStockView(d booking.DishStock) dishJSON {
    out := dishView(d.Dish)
    left := d.Remaining
    out.Remaining = &left
    return out
}

type clientJSON struct {
    ID        uint64    `json:"id"`
    UserID    *uint64   `json:"user_id,omitempty"`
    FullName  string    `json:"full_name"`
    Email     string    `json:"email"`
    CreatedAt time.Time `json:"created_at"`
}

func clientView(c model.Client) clientJSON {
    return clientJSON{ID: c.ID, UserID: c.UserID, FullName: c.FullName, Email: c.Email, CreatedAt: c.CreatedAt}
}

type reservationJSON struct {
    ID          uint64    `json:"id"`
    ClientID    uint64    `json:"client_id"`
    ClientName  string    `json:"client_name,omitempty"`
    TableID     uint64    `json:"table_id"`
    TableNumber string    `json:"table_number,omitempty"`
    GuestsCount int       `json:"guests_count"`
    StartTime   time.Time `json:"start_time"`
    EndTime     time.Time `json:"end_time"`
    CreatedAt   time.Time `json:"created_at"`
}

func reservationView(r model.Reservation, loc *time.Location) reservationJSON {
    return reservationJSON{
        ID:          r.ID,
        ClientID:    r.ClientID,
        TableID:     r.TableID,
        GuestsCount: r.GuestsCount,
        StartTime:   r.StartTime.In(loc),
        EndTime:     r.EndTime.In(loc),
        CreatedAt:   r.CreatedAt.In(loc),
    }
}

func summaryView(s model.ReservationSummary, loc *time.Location) reservationJSON {
    out := reservationView(s.Reservation, loc)
    out.ClientName = s.ClientName
    out.TableNumber = s.TableNumber
    return out
}

type lineJSON struct {
    ID         uint64 `json:"id"`
    DishID     uint64 `json:"dish_id"`
    DishName   string `json:"dish_name"`
    Quantity   int    `json:"quantity"`
    PriceCents int64  `json:"price_cents"`
    TotalCents int64  `json:"total_cents"`
}

func lineView(l model.PreOrderLine) lineJSON {
    return lineJSON{ID: l.ID, DishID: l.DishID, DishName: l.DishName, Quantity: l.Quantity, PriceCents: l.PriceCents, TotalCents: l.TotalCents()}
}

type detailJSON struct {
    reservationJSON
    Lines      []lineJSON `json:"lines"`
    TotalCents int64      `json:"total_cents"`
    CanModify  bool       `json:"can_modify"`
}

func detailView(d booking.ReservationDetail, loc *time.Location) detailJSON {
    lines := make([]lineJSON, 0, len(d.Lines))
    for _, l := range d.Lines {
        lines = append(lines, lineView(l))
    }
    return detailJSON{reservationJSON: summaryView(d.ReservationSummary, loc), Lines: lines, TotalCents: d.TotalCents, CanModify: d.CanModify}
}

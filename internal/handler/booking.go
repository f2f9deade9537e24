package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/restaurant-table-reservation/internal/booking"
    "github.com/iliyamo/restaurant-table-reservation/internal/calendar"
    "github.com/iliyamo/restaurant-table-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-table-reservation/internal/model"
    "github.com/iliyamo/restaurant-table-reservation/internal/repository"
)

// BookingHandler serves reservations and pre-orders to clients and staff.
// Clients are scoped to their own reservations by the service.
type BookingHandler struct {
    Svc *booking.Service
    Log *zap.Logger
}

func NewBookingHandler(svc *booking.Service, log *zap.Logger) *BookingHandler {
    return &BookingHandler{Svc: svc, Log: log}
}

// actor resolves the caller. A client without a profile gets ClientID 0,
// which the service rejects for client-scoped operations.
func (h *BookingHandler) actor(c echo.Context) (booking.Actor, error) {
    uid, _ := middleware.UserID(c)
    a := booking.Actor{UserID: uid, Role: middleware.Role(c)}
    if a.Role != model.RoleClient {
        return a, nil
    }
    cl, err := h.Svc.ClientForUser(c.Request().Context(), uid)
    switch {
    case err == nil:
        a.ClientID = cl.ID
    case !errors.Is(err, booking.ErrNotFound):
        return a, err
    }
    return a, nil
}

type reservationReq struct {
    ClientID        uint64 `json:"client_id"`
    TableID         uint64 `json:"table_id"`
    GuestsCount     int    `json:"guests_count"`
    Date            string `json:"date"`
    Time            string `json:"time"`
    DurationMinutes int    `json:"duration_minutes"`
}

// toRequest resolves the date choice and slot into a start instant. A bad
// date or slot does not stop the request: it travels in Invalid so the
// service reports it together with the other field errors.
func (h *BookingHandler) toRequest(req reservationReq) (booking.ReservationRequest, error) {
    out := booking.ReservationRequest{
        ClientID:        req.ClientID,
        TableID:         req.TableID,
        GuestsCount:     req.GuestsCount,
        DurationMinutes: req.DurationMinutes,
    }
    verr := &booking.ValidationError{}
    policy := h.Svc.Policy()
    day, err := policy.ResolveDate(req.Date)
    if err != nil {
        verr.Add("date", "Choose today, tomorrow, day_after_tomorrow or a YYYY-MM-DD date")
    }
    hhmm := strings.TrimSpace(req.Time)
    if !calendar.ValidSlot(hhmm) {
        verr.Add("time", "Choose a start time between 12:00 and 21:30 in 30 minute steps")
    }
    if !verr.Empty() {
        out.Invalid = verr
        return out, nil
    }
    start, err := policy.At(day, hhmm)
    if err != nil {
        return booking.ReservationRequest{}, err
    }
    out.StartTime = start
    return out, nil
}

// Options lists the dates, slots and durations a booking form offers.
func (h *BookingHandler) Options(c echo.Context) error {
    policy := h.Svc.Policy()
    dates := make([]echo.Map, 0, 3)
    for _, d := range policy.OfferedDates() {
        dates = append(dates, echo.Map{"key": d.Key, "date": d.Date.Format("2006-01-02"), "weekday": d.Date.Weekday().String()})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "timezone":              policy.Location().String(),
        "dates":                 dates,
        "time_slots":            calendar.TimeSlots(),
        "durations":             calendar.Durations,
        "lead_business_days":    calendar.LeadTimeBusinessDays,
        "modify_cutoff_minutes": int(booking.ModifyCutoff / time.Minute),
    })
}

func (h *BookingHandler) ListTables(c echo.Context) error {
    tables, err := h.Svc.ListTables(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]tableJSON, 0, len(tables))
    for _, t := range tables {
        out = append(out, tableView(t))
    }
    return c.JSON(http.StatusOK, out)
}

// ListDishes is the menu with the stock still free for pre-orders.
func (h *BookingHandler) ListDishes(c echo.Context) error {
    dishes, err := h.Svc.ListDishes(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]dishJSON, 0, len(dishes))
    for _, d := range dishes {
        out = append(out, dishStockView(d))
    }
    return c.JSON(http.StatusOK, out)
}

// Occupied handles GET /v1/tables/:id/occupied?date=&reservation_id=.
func (h *BookingHandler) Occupied(c echo.Context) error {
    tableID, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid table id")
    }
    exclude, ok := queryID(c, "reservation_id")
    if !ok {
        return badRequest(c, "invalid reservation_id")
    }
    policy := h.Svc.Policy()
    day := policy.Date(policy.Now())
    if s := c.QueryParam("date"); s != "" {
        d, err := policy.ResolveDate(s)
        if err != nil {
            return badRequest(c, "invalid date")
        }
        day = d
    }
    spans, err := h.Svc.OccupiedIntervals(c.Request().Context(), tableID, day, exclude)
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]echo.Map, 0, len(spans))
    for _, s := range spans {
        out = append(out, echo.Map{
            "reservation_id": s.ReservationID,
            "start":          s.Start.Format("15:04"),
            "end":            s.End.Format("15:04"),
            "start_time":     s.Start,
            "end_time":       s.End,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"date": day.Format("2006-01-02"), "occupied": out})
}

func (h *BookingHandler) CreateReservation(c echo.Context) error {
    var req reservationReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    in, err := h.toRequest(req)
    if err != nil {
        return fail(c, h.Log, err)
    }
    r, err := h.Svc.CreateReservation(c.Request().Context(), a, in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, reservationView(*r, h.Svc.Policy().Location()))
}

func (h *BookingHandler) UpdateReservation(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    var req reservationReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    in, err := h.toRequest(req)
    if err != nil {
        return fail(c, h.Log, err)
    }
    r, err := h.Svc.UpdateReservation(c.Request().Context(), a, id, in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, reservationView(*r, h.Svc.Policy().Location()))
}

func (h *BookingHandler) CancelReservation(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    if err := h.Svc.CancelReservation(c.Request().Context(), a, id); err != nil {
        return fail(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) GetReservation(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    d, err := h.Svc.GetReservation(c.Request().Context(), a, id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, detailView(*d, h.Svc.Policy().Location()))
}

// ListReservations returns the caller's reservations. Staff may filter by
// table_id, client_id and a date_from/date_to range (inclusive dates in the
// reference timezone).
func (h *BookingHandler) ListReservations(c echo.Context) error {
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    f, err := h.filter(c)
    if err != nil {
        return badRequest(c, err.Error())
    }
    list, err := h.Svc.ListReservations(c.Request().Context(), a, f)
    if err != nil {
        return fail(c, h.Log, err)
    }
    loc := h.Svc.Policy().Location()
    out := make([]reservationJSON, 0, len(list))
    for _, s := range list {
        out = append(out, summaryView(s, loc))
    }
    return c.JSON(http.StatusOK, out)
}

func (h *BookingHandler) filter(c echo.Context) (repository.ReservationFilter, error) {
    var f repository.ReservationFilter
    var ok bool
    if f.TableID, ok = queryID(c, "table_id"); !ok {
        return f, errors.New("invalid table_id")
    }
    if f.ClientID, ok = queryID(c, "client_id"); !ok {
        return f, errors.New("invalid client_id")
    }
    policy := h.Svc.Policy()
    if s := c.QueryParam("date_from"); s != "" {
        d, err := policy.ResolveDate(s)
        if err != nil {
            return f, errors.New("invalid date_from")
        }
        f.From = d
    }
    if s := c.QueryParam("date_to"); s != "" {
        d, err := policy.ResolveDate(s)
        if err != nil {
            return f, errors.New("invalid date_to")
        }
        _, f.To = policy.DayBounds(d)
    }
    return f, nil
}

type lineReq struct {
    DishID   uint64 `json:"dish_id"`
    Quantity int    `json:"quantity"`
}

// UpsertLine sets the quantity of one dish on a reservation.
func (h *BookingHandler) UpsertLine(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    var req lineReq
    if err := c.Bind(&req); err != nil || req.DishID == 0 {
        return badRequest(c, "dish_id and quantity required")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    line, err := h.Svc.UpsertPreOrderLine(c.Request().Context(), a, id, req.DishID, req.Quantity)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, lineView(*line))
}

func (h *BookingHandler) RemoveLine(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid reservation id")
    }
    lineID, ok := pathID(c, "line_id")
    if !ok {
        return badRequest(c, "invalid line id")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    if err := h.Svc.RemovePreOrderLine(c.Request().Context(), a, id, lineID); err != nil {
        return fail(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

type importReq struct {
    ClientID    uint64    `json:"client_id"`
    TableID     uint64    `json:"table_id"`
    GuestsCount int       `json:"guests_count"`
    StartTime   time.Time `json:"start_time"`
    EndTime     time.Time `json:"end_time"`
}

// Import records a reservation as-is, including past ones. Admins only.
func (h *BookingHandler) Import(c echo.Context) error {
    var req importReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body; times are RFC 3339")
    }
    a, err := h.actor(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    r, err := h.Svc.ImportReservation(ctx, a, booking.ReservationRequest{
        ClientID:        req.ClientID,
        TableID:         req.TableID,
        GuestsCount:     req.GuestsCount,
        StartTime:       req.StartTime,
        DurationMinutes: int(req.EndTime.Sub(req.StartTime) / time.Minute),
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, reservationView(*r, h.Svc.Policy().Location()))
}

package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/restaurant-table-reservation/internal/booking"
)

// CatalogHandler lets staff manage tables, dishes and clients.
type CatalogHandler struct {
    Svc *booking.Service
    Log *zap.Logger
}

func NewCatalogHandler(svc *booking.Service, log *zap.Logger) *CatalogHandler {
    return &CatalogHandler{Svc: svc, Log: log}
}

type tableReq struct {
    Number string `json:"table_number"`
    Seats  int    `json:"seats"`
}

func (h *CatalogHandler) CreateTable(c echo.Context) error {
    var req tableReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    t, err := h.Svc.CreateTable(c.Request().Context(), booking.TableInput{Number: req.Number, Seats: req.Seats})
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, tableView(*t))
}

func (h *CatalogHandler) GetTable(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid table id")
    }
    t, err := h.Svc.GetTable(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, tableView(*t))
}

func (h *CatalogHandler) UpdateTable(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid table id")
    }
    var req tableReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    t, err := h.Svc.UpdateTable(c.Request().Context(), id, booking.TableInput{Number: req.Number, Seats: req.Seats})
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, tableView(*t))
}

// DeleteTable answers 409 while the table has live reservations.
func (h *CatalogHandler) DeleteTable(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid table id")
    }
    if err := h.Svc.DeleteTable(c.Request().Context(), id); err != nil {
        return fail(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

type dishReq struct {
    Name              string `json:"name"`
    Description       string `json:"description"`
    PriceCents        int64  `json:"price_cents"`
    AvailableQuantity int    `json:"available_quantity"`
}

func (r dishReq) input() booking.DishInput {
    return booking.DishInput{Name: r.Name, Description: r.Description, PriceCents: r.PriceCents, AvailableQuantity: r.AvailableQuantity}
}

func (h *CatalogHandler) CreateDish(c echo.Context) error {
    var req dishReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    d, err := h.Svc.CreateDish(c.Request().Context(), req.input())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, dishView(*d))
}

func (h *CatalogHandler) UpdateDish(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid dish id")
    }
    var req dishReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    d, err := h.Svc.UpdateDish(c.Request().Context(), id, req.input())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, dishView(*d))
}

// DeleteDish answers 409 while any pre-order line references the dish.
func (h *CatalogHandler) DeleteDish(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid dish id")
    }
    if err := h.Svc.DeleteDish(c.Request().Context(), id); err != nil {
        return fail(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

type clientReq struct {
    FullName string `json:"full_name"`
    Email    string `json:"email"`
}

// ListClients supports ?q= matching name or e-mail.
func (h *CatalogHandler) ListClients(c echo.Context) error {
    list, err := h.Svc.ListClients(c.Request().Context(), c.QueryParam("q"))
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]clientJSON, 0, len(list))
    for _, cl := range list {
        out = append(out, clientView(cl))
    }
    return c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) GetClient(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid client id")
    }
    cl, err := h.Svc.GetClient(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, clientView(*cl))
}

func (h *CatalogHandler) CreateClient(c echo.Context) error {
    var req clientReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    cl, err := h.Svc.CreateClient(c.Request().Context(), booking.ClientInput{FullName: req.FullName, Email: req.Email})
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, clientView(*cl))
}

func (h *CatalogHandler) DeleteClient(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return badRequest(c, "invalid client id")
    }
    if err := h.Svc.DeleteClient(c.Request().Context(), id); err != nil {
        return fail(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}

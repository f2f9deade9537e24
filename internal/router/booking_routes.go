package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterBooking mounts reservation and pre-order routes for every
// authenticated role. Clients only reach their own reservations; staff
// reach all of them and skip the modification cutoff.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/reservations",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleClient, model.RoleOperator, model.RoleAdmin),
	)
	g.GET("", h.ListReservations)
	g.POST("", h.CreateReservation, limit)
	g.GET("/:id", h.GetReservation)
	g.PUT("/:id", h.UpdateReservation, limit)
	g.DELETE("/:id", h.CancelReservation)
	g.PUT("/:id/dishes", h.UpsertLine, limit)
	g.DELETE("/:id/dishes/:line_id", h.RemoveLine)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterStaff mounts table, dish and client management for operators
// and admins.
func RegisterStaff(e *echo.Echo, h *handler.CatalogHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOperator, model.RoleAdmin),
	)

	g.POST("/tables", h.CreateTable)
	g.GET("/tables/:id", h.GetTable)
	g.PUT("/tables/:id", h.UpdateTable)
	g.DELETE("/tables/:id", h.DeleteTable)

	g.POST("/dishes", h.CreateDish)
	g.PUT("/dishes/:id", h.UpdateDish)
	g.DELETE("/dishes/:id", h.DeleteDish)

	g.GET("/clients", h.ListClients)
	g.POST("/clients", h.CreateClient)
	g.GET("/clients/:id", h.GetClient)
	g.DELETE("/clients/:id", h.DeleteClient)
}

// RegisterAdmin mounts admin-only maintenance routes.
func RegisterAdmin(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.POST("/reservations/import", h.Import)
}

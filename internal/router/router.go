// Package router registers the HTTP API on an Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// Deps carries everything the routes need. Cache and RateLimit may be nil,
// which disables them.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Auth      *handler.AuthHandler
	Booking   *handler.BookingHandler
	Catalog   *handler.CatalogHandler
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// Setup registers every route group.
func Setup(e *echo.Echo, d Deps) {
	if d.Cache == nil {
		d.Cache = passthrough
	}
	if d.RateLimit == nil {
		d.RateLimit = passthrough
	}
	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret, d.RateLimit)
	RegisterPublic(e, d.Booking, d.Cache)
	RegisterBooking(e, d.Booking, d.JWTSecret, d.RateLimit)
	RegisterStaff(e, d.Catalog, d.JWTSecret)
	RegisterAdmin(e, d.Booking, d.JWTSecret)
}

// RegisterRoutes exposes the liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth mounts the session endpoints under /v1/auth and /v1/me.
// Credential-accepting routes are rate limited.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/refresh", a.Refresh, limit)
	g.POST("/refresh-access", a.RefreshAccess, limit)
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleClient, model.RoleOperator, model.RoleAdmin))
}

// RegisterPublic mounts the anonymous catalog reads. Table occupancy is
// never cached since it changes with every booking.
func RegisterPublic(e *echo.Echo, b *handler.BookingHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/booking/options", b.Options, cache)
	e.GET("/v1/tables", b.ListTables, cache)
	e.GET("/v1/dishes", b.ListDishes, cache)
	e.GET("/v1/tables/:id/occupied", b.Occupied)
}

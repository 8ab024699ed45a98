// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/bus-seat-reservation/internal/config"
	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Deps carries everything the routes need.  Redis may be nil; the rate
// limiter and response cache then pass requests straight through.
type Deps struct {
	JWTSecret    string
	Redis        redis.UniversalClient
	RateLimit    config.RateLimitConfig
	Cache        config.CacheConfig
	Seats        *handler.SeatHandler
	Reservations *handler.ReservationHandler
	Operator     *handler.OperatorHandler
	Admin        *handler.AdminHandler
}

// RegisterRoutes registers the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers layout and availability endpoints.  They need no
// token.
func RegisterPublic(e *echo.Echo, d Deps) {
	e.GET("/v1/layouts/:class", d.Seats.ClassLayout, middleware.NewRedisCache(d.Cache, d.Redis))

	v := e.Group("/v1/vehicles/:id")
	v.GET("/layout", d.Seats.VehicleLayout)
	v.GET("/seats", d.Seats.OccupiedSeats)
	v.GET("/seats/stream", d.Seats.Stream)
	v.GET("/seats/:seat", d.Seats.SeatAvailability)
}

// RegisterBooking registers the passenger booking endpoints.  Guests may
// create reservations; listing and cancelling require a passenger token.
func RegisterBooking(e *echo.Echo, d Deps) {
	e.POST("/v1/reservations", d.Reservations.Create,
		middleware.OptionalJWT(d.JWTSecret),
		middleware.NewTokenBucket(d.RateLimit, d.Redis),
	)

	// Per-route middleware: a /v1 group would also guard unknown /v1 paths
	// and answer them with 401.
	passenger := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RolePassenger),
	}
	e.GET("/v1/my-reservations", d.Reservations.ListMine, passenger...)
	e.POST("/v1/reservations/:id/cancel", d.Reservations.CancelMine, passenger...)
}

// RegisterOperator registers the fleet operator endpoints.
func RegisterOperator(e *echo.Echo, d Deps) {
	g := e.Group("/v1/operator")
	g.Use(middleware.JWTAuth(d.JWTSecret))
	g.Use(middleware.RequireRole(model.RoleOperator))
	g.GET("/vehicles/:id/reservations", d.Operator.Manifest)
	g.POST("/reservations/:id/cancel", d.Operator.Cancel)
	g.POST("/reservations/:id/complete", d.Operator.Complete)
}

// RegisterAdmin registers administrative endpoints.
func RegisterAdmin(e *echo.Echo, d Deps) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(d.JWTSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.DELETE("/reservations/:id", d.Admin.DeleteReservation)
}

// Register wires every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e)
	RegisterPublic(e, d)
	RegisterBooking(e, d)
	RegisterOperator(e, d)
	RegisterAdmin(e, d)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airplane-seat-reservation/internal/handler"
	"github.com/iliyamo/airplane-seat-reservation/internal/middleware"
)

// RegisterReservations registers the user-scoped reservation endpoints.
// All routes require a valid JWT whose subject matches the :id path
// parameter.  Reserving is additionally rate limited.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))
	self := middleware.RequireSelf("id")

	g.GET("/users/:id/reservations", h.List, self)
	g.PUT("/planes/:type/user/:id", h.Reserve, self, limiter)
	g.DELETE("/user/:id/planes/:type", h.Cancel, self)
}

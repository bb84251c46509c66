package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airplane-seat-reservation/internal/handler"    // admin handlers
	"github.com/iliyamo/airplane-seat-reservation/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /api/admin.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/api/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Consistency ----
	g.GET("/planes/:type/audit", a.Audit)
}

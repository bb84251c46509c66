package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/airplane-seat-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/airplane-seat-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers the probes used by load balancers and
// monitoring: /healthz always answers, /readyz only while db does.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the session endpoints.  Registration, login and
// refresh are open; reading and ending the current session require a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api")
	g.POST("/users", a.Register)
	g.POST("/sessions", a.Login)
	g.POST("/sessions/refresh", a.Refresh)

	auth := g.Group("/sessions/current", middleware.JWTAuth(jwtSecret))
	auth.GET("", a.Me)
	auth.DELETE("", a.Logout)
}

// RegisterPublic registers unauthenticated airplane endpoints.  The layout
// never changes and is served through the response cache.
func RegisterPublic(e *echo.Echo, p *handler.AirplaneHandler, cache echo.MiddlewareFunc) {
	e.GET("/api/planes/:type", p.View)
	e.GET("/api/planes/:type/layout", p.Layout, cache)
}

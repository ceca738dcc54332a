package router

import (
	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/handler"
	"github.com/expohall/expo-reservation/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the session endpoints.  Register, login, refresh
// and logout live under /v1/auth without JWT middleware; logout
// authenticates via bearer token or refresh token inside the handler.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(handler.StaffRole, handler.VisitorRole))
	auth.GET("/me", a.Me)
}

// RegisterPublic wires unauthenticated browse endpoints.  The cache
// middleware is applied per route so authenticated groups stay
// uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/activities", p.ListActivities, cache)
	e.GET("/v1/activities/:id/rounds", p.ListRounds, cache)
}

package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/eventhub/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/eventhub/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/eventhub/internal/model"
)

// allRoles is accepted on endpoints any signed-in account may call.
var allRoles = []string{model.RoleUser, model.RoleOrganizer, model.RoleAdmin}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.  Operations
// that create or exchange sessions live under /v1/auth, while the
// endpoints that need a valid access token live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Called by the sign-in bridge after a provider has verified the user.
	g.POST("/social", a.Social)
	g.GET("/providers", a.Providers)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body or a bearer token; the
	// bearer alone revokes every session of that user.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole(allRoles...))
	auth.GET("/me", a.Me)
	auth.GET("/users/:id", a.User)
}

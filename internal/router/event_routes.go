package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/handler"
	"github.com/iliyamo/eventhub/internal/middleware"
	"github.com/iliyamo/eventhub/internal/model"
)

// RegisterEvents registers the catalogue.  Browsing is public and the
// listing goes through the response cache; writes need an organizer or
// admin token, and ownership is checked by the service.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/events", h.List, cache)
	// Static segments are matched before :id by echo's router.
	e.GET("/v1/events/categories", h.Categories)
	e.GET("/v1/events/cities", h.Cities)
	e.GET("/v1/events/:id", h.Get)

	g := e.Group(
		"/v1/events",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleAdmin),
	)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

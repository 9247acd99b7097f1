package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/handler"
	"github.com/iliyamo/eventhub/internal/middleware"
)

// RegisterBookings registers booking endpoints under /v1.  All routes
// require a valid JWT; the service checks that a booking belongs to the
// caller unless the caller is an admin.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(allRoles...),
	)
	g.POST("/events/:id/bookings", h.Create)
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	g.DELETE("/bookings/:id", h.Cancel)
}

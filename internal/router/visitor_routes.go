package router

import (
	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/handler"
	"github.com/expohall/expo-reservation/internal/middleware"
)

// RegisterVisitor wires the reservation endpoints.  Staff pass the role
// gate too: ticket cancellation accepts staff acting on behalf of a
// visitor, ownership is enforced inside the handler.
func RegisterVisitor(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.VisitorRole, handler.StaffRole),
	)
	g.POST("/rounds/:id/reserve", h.Reserve)
	g.DELETE("/tickets/:id", h.CancelTicket)
	g.GET("/my-tickets", h.MyTickets)
}

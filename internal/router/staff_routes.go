package router

import (
	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/handler"
	"github.com/expohall/expo-reservation/internal/middleware"
)

// RegisterStaff wires the staff-only surface: gate check-in plus the
// activity and round management endpoints.  The summary endpoint takes
// the response cache since it aggregates over a whole activity.
func RegisterStaff(e *echo.Echo, ci *handler.CheckInHandler, s *handler.StaffHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.StaffRole),
	)

	g.POST("/activities/:id/checkin", ci.CheckIn)
	g.GET("/activities/:id/checkin/summary", ci.Summary, cache)
	g.GET("/activities/:id/checkins", ci.ListChecks)
	g.DELETE("/checkins/:id", ci.DeleteCheck)

	st := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(handler.StaffRole),
	)
	st.POST("/activities", s.CreateActivity)
	st.PUT("/activities/:id", s.UpdateActivity)
	st.DELETE("/activities/:id", s.DeleteActivity)
	st.POST("/activities/:id/rounds", s.CreateRound)
	st.PUT("/rounds/:id", s.UpdateRound)
	st.DELETE("/rounds/:id", s.DeleteRound)
}

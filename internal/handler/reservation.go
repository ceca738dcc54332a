package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/repository"
	"github.com/expohall/expo-reservation/internal/service"
)

// Reserver is the reservation saga as the HTTP layer sees it. Defined
// here so handler tests can substitute a fake.
type Reserver interface {
	Reserve(ctx context.Context, userID, roundID uint64) (*model.Ticket, error)
	Cancel(ctx context.Context, ticketID, requesterID uint64, staff bool) error
}

// TicketLister lists a visitor's own tickets with round/activity context.
type TicketLister interface {
	ListByUser(ctx context.Context, userID uint64) ([]repository.TicketDetail, error)
}

// ReservationHandler serves the visitor-facing reservation endpoints.
// JWT authentication and role validation have already run in middleware;
// methods return 401 only when the user ID cannot be extracted from the
// context.
type ReservationHandler struct {
	Reservations Reserver
	Tickets      TicketLister
}

// NewReservationHandler constructs a ReservationHandler. All
// dependencies must be non-nil.
func NewReservationHandler(reservations Reserver, tickets TicketLister) *ReservationHandler {
	if reservations == nil || tickets == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: reservations, Tickets: tickets}
}

// Reserve handles POST /v1/rounds/:id/reserve. It takes one seat on the
// round for the authenticated user and returns the issued ticket with
// 201. A full round answers 409 with code "seats_full"; a repeated
// reservation answers 409 with code "already_reserved".
func (h *ReservationHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roundID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid round id"})
	}

	ticket, err := h.Reservations.Reserve(c.Request().Context(), userID, roundID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRoundNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "round not found"})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, repository.ErrSeatsFull):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seats_full", "message": "this round is fully booked"})
		case errors.Is(err, service.ErrAlreadyReserved):
			return c.JSON(http.StatusConflict, echo.Map{"error": "already_reserved", "message": "you already hold a ticket for this round"})
		}
		// Inconsistent-state and persistence errors were already logged by
		// the service; clients get a generic failure.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"ticket": ticket})
}

// CancelTicket handles DELETE /v1/tickets/:id. The ticket owner or any
// staff member may cancel; the seat returns to the round. Responds 204
// on success, 404 when the ticket is gone (including a second cancel of
// the same id) and 403 for non-owners.
func (h *ReservationHandler) CancelTicket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	err = h.Reservations.Cancel(c.Request().Context(), ticketID, userID, isStaff(c))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTicketNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// MyTickets handles GET /v1/my-tickets. It returns all of the
// authenticated user's tickets with round and activity details; an
// empty array when none exist.
func (h *ReservationHandler) MyTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Tickets.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load tickets"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

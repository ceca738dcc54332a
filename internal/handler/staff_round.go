package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/repository"
)

type roundReq struct {
	Name     string    `json:"name"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Capacity uint32    `json:"capacity"`
}

func (r *roundReq) validate() string {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return "name is required"
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return "starts_at and ends_at are required"
	}
	if !r.EndsAt.After(r.StartsAt) {
		return "ends_at must be after starts_at"
	}
	return ""
}

// CreateRound handles POST /v1/staff/activities/:id/rounds. New rounds
// start with reserved=0; capacity may be zero for a not-yet-open slot.
func (h *StaffHandler) CreateRound(c echo.Context) error {
	activityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	var req roundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	if _, err := h.Activities.GetByID(c.Request().Context(), activityID); err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rd := model.Round{
		ActivityID: activityID,
		Name:       req.Name,
		StartsAt:   req.StartsAt.UTC(),
		EndsAt:     req.EndsAt.UTC(),
		Capacity:   req.Capacity,
	}
	if err := h.Rounds.Create(c.Request().Context(), &rd); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create round failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"round": roundView(&rd)})
}

// UpdateRound handles PUT/PATCH /v1/staff/rounds/:id. Shrinking the
// capacity below the reserved count answers 409 so an admin edit cannot
// break the ledger invariant.
func (h *StaffHandler) UpdateRound(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid round id"})
	}
	var req roundReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	rd := model.Round{ID: id, Name: req.Name, StartsAt: req.StartsAt.UTC(), EndsAt: req.EndsAt.UTC(), Capacity: req.Capacity}
	if err := h.Rounds.Update(c.Request().Context(), &rd); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoundNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "round not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "capacity below reserved seats"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update round failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"round": roundView(&rd)})
}

// DeleteRound handles DELETE /v1/staff/rounds/:id. A round with
// outstanding tickets answers 409; tickets must be cancelled first so
// seat accounting and user reservation lists stay coherent.
func (h *StaffHandler) DeleteRound(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid round id"})
	}
	if err := h.Rounds.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoundNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "round not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "round still has tickets"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete round failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// roundView augments a round with its derived availability for JSON
// responses.
func roundView(rd *model.Round) echo.Map {
	return echo.Map{
		"id":          rd.ID,
		"activity_id": rd.ActivityID,
		"name":        rd.Name,
		"starts_at":   rd.StartsAt,
		"ends_at":     rd.EndsAt,
		"seats": echo.Map{
			"capacity":  rd.Capacity,
			"reserved":  rd.Reserved,
			"available": rd.Available(),
		},
	}
}

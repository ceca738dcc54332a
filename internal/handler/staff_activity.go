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

// StaffHandler bundles repositories for staff to manage activities and
// rounds. Seat counters are never set through these endpoints; rounds
// get a capacity and the ledger owns the rest.
type StaffHandler struct {
	Activities *repository.ActivityRepo
	Rounds     *repository.RoundRepo
}

// NewStaffHandler constructs a StaffHandler and panics if any dependency is nil.
func NewStaffHandler(activities *repository.ActivityRepo, rounds *repository.RoundRepo) *StaffHandler {
	if activities == nil || rounds == nil {
		panic("nil repository passed to NewStaffHandler")
	}
	return &StaffHandler{Activities: activities, Rounds: rounds}
}

type activityReq struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

func (r *activityReq) validate() string {
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

// CreateActivity handles POST /v1/staff/activities.
func (h *StaffHandler) CreateActivity(c echo.Context) error {
	var req activityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	a := model.Activity{Name: req.Name, Description: req.Description, StartsAt: req.StartsAt.UTC(), EndsAt: req.EndsAt.UTC()}
	if err := h.Activities.Create(c.Request().Context(), &a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create activity failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"activity": a})
}

// UpdateActivity handles PUT/PATCH /v1/staff/activities/:id.
func (h *StaffHandler) UpdateActivity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	var req activityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	a := model.Activity{ID: id, Name: req.Name, Description: req.Description, StartsAt: req.StartsAt.UTC(), EndsAt: req.EndsAt.UTC()}
	if err := h.Activities.Update(c.Request().Context(), &a); err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update activity failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"activity": a})
}

// DeleteActivity handles DELETE /v1/staff/activities/:id. An activity
// that still has rounds answers 409.
func (h *StaffHandler) DeleteActivity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	if err := h.Activities.Delete(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, repository.ErrActivityNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "activity still has rounds"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete activity failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

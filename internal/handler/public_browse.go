package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/repository"
)

// PublicHandler exposes unauthenticated browse endpoints: the activity
// catalogue and per-activity round listings with live availability.
// Guests use these to pick a slot before registering.
type PublicHandler struct {
	Activities *repository.ActivityRepo
	Rounds     *repository.RoundRepo
}

// NewPublicHandler constructs a PublicHandler and panics if any dependency is nil.
func NewPublicHandler(activities *repository.ActivityRepo, rounds *repository.RoundRepo) *PublicHandler {
	if activities == nil || rounds == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Activities: activities, Rounds: rounds}
}

// ListActivities handles GET /v1/activities.
func (h *PublicHandler) ListActivities(c echo.Context) error {
	items, err := h.Activities.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load activities"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListRounds handles GET /v1/activities/:id/rounds. Each round carries
// its derived availability so clients never compute it themselves.
func (h *PublicHandler) ListRounds(c echo.Context) error {
	activityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Activities.GetByID(ctx, activityID); err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	rounds, err := h.Rounds.ListByActivity(ctx, activityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rounds"})
	}
	items := make([]echo.Map, 0, len(rounds))
	for i := range rounds {
		items = append(items, roundView(&rounds[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/expohall/expo-reservation/internal/repository"
	"github.com/expohall/expo-reservation/internal/service"
)

// CheckInRecorder is the check-in service as the HTTP layer sees it.
type CheckInRecorder interface {
	CheckIn(ctx context.Context, activityID, userID, recordedBy uint64) (*service.CheckInOutcome, error)
	Summarize(ctx context.Context, activityID uint64, bucketMinutes int) ([]service.TimeBucket, error)
}

// CheckLister exposes the raw attendance log to staff.
type CheckLister interface {
	ListByActivity(ctx context.Context, activityID uint64) ([]repository.CheckDetail, error)
	Delete(ctx context.Context, id uint64) error
}

// CheckInHandler serves the staff/scanner attendance endpoints. All
// routes are behind the STAFF role.
type CheckInHandler struct {
	Service CheckInRecorder
	Checks  CheckLister
}

// NewCheckInHandler constructs a CheckInHandler. All dependencies must
// be non-nil.
func NewCheckInHandler(svc CheckInRecorder, checks CheckLister) *CheckInHandler {
	if svc == nil || checks == nil {
		panic("nil dependency passed to NewCheckInHandler")
	}
	return &CheckInHandler{Service: svc, Checks: checks}
}

// CheckIn handles POST /v1/activities/:id/checkin with body
// {"user_id": N}. The response carries the stored record and a
// duplicated flag; scanning the same visitor twice is 201 both times.
func (h *CheckInHandler) CheckIn(c echo.Context) error {
	staffID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	activityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	outcome, err := h.Service.CheckIn(c.Request().Context(), activityID, body.UserID, staffID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrActivityNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		case errors.Is(err, repository.ErrUserNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"duplicated": outcome.Duplicated,
		"record":     outcome.Record,
	})
}

// Summary handles GET /v1/activities/:id/checkin/summary. The optional
// bucket_minutes query parameter controls the bucket width (default 15).
func (h *CheckInHandler) Summary(c echo.Context) error {
	activityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	bucket := 0
	if raw := c.QueryParam("bucket_minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid bucket_minutes"})
		}
		bucket = n
	}

	buckets, err := h.Service.Summarize(c.Request().Context(), activityID, bucket)
	if err != nil {
		if errors.Is(err, repository.ErrActivityNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "activity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "summary failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"buckets": buckets})
}

// ListChecks handles GET /v1/activities/:id/checkins and returns the raw
// attendance log, newest first.
func (h *CheckInHandler) ListChecks(c echo.Context) error {
	activityID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid activity id"})
	}
	items, err := h.Checks.ListByActivity(c.Request().Context(), activityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load checks"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// DeleteCheck handles DELETE /v1/checkins/:id, removing a mistaken scan
// from the otherwise append-only log.
func (h *CheckInHandler) DeleteCheck(c echo.Context) error {
	checkID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check id"})
	}
	if err := h.Checks.Delete(c.Request().Context(), checkID); err != nil {
		if errors.Is(err, repository.ErrCheckNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "check not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

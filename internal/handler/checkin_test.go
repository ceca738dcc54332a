package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/expohall/expo-reservation/internal/model"
	"github.com/expohall/expo-reservation/internal/repository"
	"github.com/expohall/expo-reservation/internal/service"
)

// MockRecorder mocks the check-in service.
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) CheckIn(ctx context.Context, activityID, userID, recordedBy uint64) (*service.CheckInOutcome, error) {
	args := m.Called(ctx, activityID, userID, recordedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckInOutcome), args.Error(1)
}

func (m *MockRecorder) Summarize(ctx context.Context, activityID uint64, bucketMinutes int) ([]service.TimeBucket, error) {
	args := m.Called(ctx, activityID, bucketMinutes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.TimeBucket), args.Error(1)
}

// MockCheckLister mocks the raw attendance log.
type MockCheckLister struct {
	mock.Mock
}

func (m *MockCheckLister) ListByActivity(ctx context.Context, activityID uint64) ([]repository.CheckDetail, error) {
	args := m.Called(ctx, activityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.CheckDetail), args.Error(1)
}

func (m *MockCheckLister) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func checkinCtx(t *testing.T, activityID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/activities/"+activityID+"/checkin", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/activities/:id/checkin")
	c.SetParamNames("id")
	c.SetParamValues(activityID)
	c.Set("user_id", float64(9))
	c.Set("role", StaffRole)
	return c, rec
}

func TestCheckInHandlerCreated(t *testing.T) {
	svc := new(MockRecorder)
	h := NewCheckInHandler(svc, new(MockCheckLister))

	outcome := &service.CheckInOutcome{
		Duplicated: false,
		Record:     &model.ActivityCheck{ID: 5, ActivityID: 3, UserID: 42, CreatedBy: 9},
	}
	svc.On("CheckIn", mock.Anything, uint64(3), uint64(42), uint64(9)).Return(outcome, nil)

	c, rec := checkinCtx(t, "3", `{"user_id":42}`)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicated":false`)
}

func TestCheckInHandlerDuplicateStill201(t *testing.T) {
	svc := new(MockRecorder)
	h := NewCheckInHandler(svc, new(MockCheckLister))

	outcome := &service.CheckInOutcome{
		Duplicated: true,
		Record:     &model.ActivityCheck{ID: 6, ActivityID: 3, UserID: 42, CreatedBy: 9},
	}
	svc.On("CheckIn", mock.Anything, uint64(3), uint64(42), uint64(9)).Return(outcome, nil)

	c, rec := checkinCtx(t, "3", `{"user_id":42}`)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicated":true`)
}

func TestCheckInHandlerMissingUserID(t *testing.T) {
	h := NewCheckInHandler(new(MockRecorder), new(MockCheckLister))
	c, rec := checkinCtx(t, "3", `{}`)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckInHandlerUnknownActivity(t *testing.T) {
	svc := new(MockRecorder)
	h := NewCheckInHandler(svc, new(MockCheckLister))
	svc.On("CheckIn", mock.Anything, uint64(99), uint64(42), uint64(9)).Return(nil, repository.ErrActivityNotFound)

	c, rec := checkinCtx(t, "99", `{"user_id":42}`)
	require.NoError(t, h.CheckIn(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func summaryCtx(t *testing.T, activityID, query string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/activities/"+activityID+"/checkin/summary"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/activities/:id/checkin/summary")
	c.SetParamNames("id")
	c.SetParamValues(activityID)
	c.Set("user_id", float64(9))
	c.Set("role", StaffRole)
	return c, rec
}

func TestSummaryHandlerPassesBucketWidth(t *testing.T) {
	svc := new(MockRecorder)
	h := NewCheckInHandler(svc, new(MockCheckLister))

	start := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	svc.On("Summarize", mock.Anything, uint64(3), 30).
		Return([]service.TimeBucket{{Start: start, Count: 4}}, nil)

	c, rec := summaryCtx(t, "3", "?bucket_minutes=30")
	require.NoError(t, h.Summary(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":4`)
}

func TestSummaryHandlerDefaultWidth(t *testing.T) {
	svc := new(MockRecorder)
	h := NewCheckInHandler(svc, new(MockCheckLister))
	svc.On("Summarize", mock.Anything, uint64(3), 0).Return([]service.TimeBucket{}, nil)

	c, rec := summaryCtx(t, "3", "")
	require.NoError(t, h.Summary(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertCalled(t, "Summarize", mock.Anything, uint64(3), 0)
}

func TestSummaryHandlerRejectsBadWidth(t *testing.T) {
	h := NewCheckInHandler(new(MockRecorder), new(MockCheckLister))
	c, rec := summaryCtx(t, "3", "?bucket_minutes=-5")
	require.NoError(t, h.Summary(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCheckHandler(t *testing.T) {
	lister := new(MockCheckLister)
	h := NewCheckInHandler(new(MockRecorder), lister)
	lister.On("Delete", mock.Anything, uint64(5)).Return(nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/checkins/5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/checkins/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.DeleteCheck(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteCheckHandlerMissing(t *testing.T) {
	lister := new(MockCheckLister)
	h := NewCheckInHandler(new(MockRecorder), lister)
	lister.On("Delete", mock.Anything, uint64(5)).Return(repository.ErrCheckNotFound)

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/checkins/5", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/checkins/:id")
	c.SetParamNames("id")
	c.SetParamValues("5")

	require.NoError(t, h.DeleteCheck(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

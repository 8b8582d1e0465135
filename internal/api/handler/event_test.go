package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/event"
)

// MockEventService はEventServiceInterfaceのモック
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) Register(ctx context.Context, actor authz.Actor, eventID string) (*event.Attendee, error) {
	args := m.Called(ctx, actor, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Attendee), args.Error(1)
}

func (m *MockEventService) Unregister(ctx context.Context, actor authz.Actor, eventID string) error {
	args := m.Called(ctx, actor, eventID)
	return args.Error(0)
}

func (m *MockEventService) GetAttendeeCount(ctx context.Context, eventID string) (int, error) {
	args := m.Called(ctx, eventID)
	return args.Int(0), args.Error(1)
}

func TestEventHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("ファシリテーターはイベントを作成できる", func(t *testing.T) {
		mockService := new(MockEventService)
		maxCap := 30
		created := event.NewEvent("満月のセレモニー", "", "Tepoztlán", time.Now().Add(24*time.Hour), &maxCap)
		created.ID = "event-123"
		mockService.On("CreateEvent", mock.Anything, mock.AnythingOfType("application.CreateEventInput")).
			Return(created, nil)

		h := NewEventHandler(mockService)

		reqBody := `{"name": "満月のセレモニー", "location": "Tepoztlán", "start_date": "2026-09-06T20:00:00Z", "max_capacity": 30}`
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "fac-1", "facilitator")

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp EventResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "event-123", resp.ID)
	})

	t.Run("一般ユーザーは403", func(t *testing.T) {
		mockService := new(MockEventService)
		mockService.On("CreateEvent", mock.Anything, mock.AnythingOfType("application.CreateEventInput")).
			Return(nil, authz.ErrForbidden)

		h := NewEventHandler(mockService)

		reqBody := `{"name": "集い", "start_date": "2026-09-06T20:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "user-1", "user")

		err := h.Create(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})
}

func TestEventHandler_Register(t *testing.T) {
	e := NewTestEcho()

	t.Run("登録成功", func(t *testing.T) {
		mockService := new(MockEventService)
		attendee := event.NewAttendee("event-123", "user-1")
		attendee.ID = "att-1"
		actor := authz.Actor{UserID: "user-1", Role: "user"}
		mockService.On("Register", mock.Anything, actor, "event-123").Return(attendee, nil)

		h := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/events/event-123/register", nil)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "user-1", "user")
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		require.NoError(t, h.Register(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp AttendeeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "registered", resp.Status)
	})

	t.Run("重複登録は409", func(t *testing.T) {
		mockService := new(MockEventService)
		actor := authz.Actor{UserID: "user-1", Role: "user"}
		mockService.On("Register", mock.Anything, actor, "event-123").
			Return(nil, event.ErrAlreadyRegistered)

		h := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/events/event-123/register", nil)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "user-1", "user")
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		err := h.Register(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, httpErr.Code)
	})

	t.Run("定員到達は422", func(t *testing.T) {
		mockService := new(MockEventService)
		actor := authz.Actor{UserID: "user-1", Role: "user"}
		mockService.On("Register", mock.Anything, actor, "event-123").
			Return(nil, event.ErrEventCapacityExceeded)

		h := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodPost, "/events/event-123/register", nil)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "user-1", "user")
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		err := h.Register(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Code)
	})
}

func TestEventHandler_Unregister(t *testing.T) {
	e := NewTestEcho()

	t.Run("取り消し成功は204", func(t *testing.T) {
		mockService := new(MockEventService)
		actor := authz.Actor{UserID: "user-1", Role: "user"}
		mockService.On("Unregister", mock.Anything, actor, "event-123").Return(nil)

		h := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/events/event-123/register", nil)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "user-1", "user")
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		require.NoError(t, h.Unregister(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("二重取り消しは409", func(t *testing.T) {
		mockService := new(MockEventService)
		actor := authz.Actor{UserID: "user-1", Role: "user"}
		mockService.On("Unregister", mock.Anything, actor, "event-123").
			Return(event.ErrRegistrationAlreadyCancelled)

		h := NewEventHandler(mockService)

		req := httptest.NewRequest(http.MethodDelete, "/events/event-123/register", nil)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "user-1", "user")
		c.SetParamNames("id")
		c.SetParamValues("event-123")

		err := h.Unregister(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusConflict, httpErr.Code)
	})
}

func TestEventHandler_GetAttendeeCount(t *testing.T) {
	e := NewTestEcho()

	mockService := new(MockEventService)
	mockService.On("GetAttendeeCount", mock.Anything, "event-123").Return(12, nil)

	h := NewEventHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/events/event-123/attendees/count", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("event-123")

	require.NoError(t, h.GetAttendeeCount(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp AttendeeCountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 12, resp.Count)
}

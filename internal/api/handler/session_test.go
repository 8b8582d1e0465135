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
	"github.com/davorint/amatlan-booking/internal/domain/session"
)

// MockSessionService はSessionServiceInterfaceのモック
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) CreateSession(ctx context.Context, input application.CreateSessionInput) (*session.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionService) GetSessionsByExperience(ctx context.Context, experienceID string) ([]*session.Session, error) {
	args := m.Called(ctx, experienceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*session.Session), args.Error(1)
}

func (m *MockSessionService) UpdateSession(ctx context.Context, input application.UpdateSessionInput) (*session.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Session), args.Error(1)
}

func (m *MockSessionService) GetAvailability(ctx context.Context, sessionID string) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func testSession() *session.Session {
	maxCap := 8
	start := time.Date(2026, 3, 21, 10, 0, 0, 0, time.UTC)
	s := session.NewSession("exp-1", start, nil, &maxCap, nil)
	s.ID = "session-1"
	s.CurrentCount = 3
	return s
}

func TestSessionHandler_Create(t *testing.T) {
	e := NewTestEcho()

	t.Run("正常に開催枠を作成できる", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("CreateSession", mock.Anything, mock.MatchedBy(func(in application.CreateSessionInput) bool {
			return in.ExperienceID == "exp-1" && in.MaxCapacity != nil && *in.MaxCapacity == 8
		})).Return(testSession(), nil)

		h := NewSessionHandler(mockService)

		reqBody := `{"experience_id": "exp-1", "start_time": "2026-03-21T10:00:00Z", "max_capacity": 8}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "fac-1", "facilitator")

		require.NoError(t, h.Create(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "session-1", resp.ID)
		assert.Equal(t, 5, resp.Remaining)
		mockService.AssertExpectations(t)
	})

	t.Run("定員0はバリデーションエラー", func(t *testing.T) {
		mockService := new(MockSessionService)
		h := NewSessionHandler(mockService)

		reqBody := `{"experience_id": "exp-1", "start_time": "2026-03-21T10:00:00Z", "max_capacity": 0}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "fac-1", "facilitator")

		err := h.Create(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		mockService.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("担当外のファシリテーターは403を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("CreateSession", mock.Anything, mock.AnythingOfType("application.CreateSessionInput")).
			Return(nil, authz.ErrForbidden)

		h := NewSessionHandler(mockService)

		reqBody := `{"experience_id": "exp-1", "start_time": "2026-03-21T10:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "fac-2", "facilitator")

		err := h.Create(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})
}

func TestSessionHandler_GetByID(t *testing.T) {
	e := NewTestEcho()

	t.Run("開催枠を取得できる", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("GetSession", mock.Anything, "session-1").Return(testSession(), nil)

		h := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/session-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("session-1")

		require.NoError(t, h.GetByID(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "exp-1", resp.ExperienceID)
		assert.Equal(t, 3, resp.CurrentCount)
	})

	t.Run("存在しない開催枠は404を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("GetSession", mock.Anything, "session-999").
			Return(nil, session.ErrSessionNotFound)

		h := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/session-999", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("session-999")

		err := h.GetByID(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
	})
}

func TestSessionHandler_ListByExperience(t *testing.T) {
	e := NewTestEcho()

	t.Run("体験の開催枠一覧を取得できる", func(t *testing.T) {
		s2 := testSession()
		s2.ID = "session-2"
		mockService := new(MockSessionService)
		mockService.On("GetSessionsByExperience", mock.Anything, "exp-1").
			Return([]*session.Session{testSession(), s2}, nil)

		h := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/experiences/exp-1/sessions", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("exp-1")

		require.NoError(t, h.ListByExperience(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "session-2", resp[1].ID)
	})
}

func TestSessionHandler_Update(t *testing.T) {
	e := NewTestEcho()

	t.Run("定員を拡大できる", func(t *testing.T) {
		updated := testSession()
		newCap := 12
		updated.MaxCapacity = &newCap
		mockService := new(MockSessionService)
		mockService.On("UpdateSession", mock.Anything, mock.MatchedBy(func(in application.UpdateSessionInput) bool {
			return in.SessionID == "session-1" && in.MaxCapacity != nil && *in.MaxCapacity == 12
		})).Return(updated, nil)

		h := NewSessionHandler(mockService)

		reqBody := `{"max_capacity": 12}`
		req := httptest.NewRequest(http.MethodPut, "/sessions/session-1", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "fac-1", "facilitator")
		c.SetParamNames("id")
		c.SetParamValues("session-1")

		require.NoError(t, h.Update(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.MaxCapacity)
		assert.Equal(t, 12, *resp.MaxCapacity)
		assert.Equal(t, 9, resp.Remaining)
	})

	t.Run("予約数未満への定員縮小は400を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("UpdateSession", mock.Anything, mock.AnythingOfType("application.UpdateSessionInput")).
			Return(nil, session.ErrCapacityBelowBooked)

		h := NewSessionHandler(mockService)

		reqBody := `{"max_capacity": 2}`
		req := httptest.NewRequest(http.MethodPut, "/sessions/session-1", strings.NewReader(reqBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := newAuthedContext(e, req, rec, "fac-1", "facilitator")
		c.SetParamNames("id")
		c.SetParamValues("session-1")

		err := h.Update(c)
		require.Error(t, err)
		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})
}

func TestSessionHandler_GetAvailability(t *testing.T) {
	e := NewTestEcho()

	t.Run("残り予約可能数を取得できる", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("GetAvailability", mock.Anything, "session-1").Return(5, nil)

		h := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/session-1/availability", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("session-1")

		require.NoError(t, h.GetAvailability(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp AvailabilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "session-1", resp.SessionID)
		assert.Equal(t, 5, resp.Remaining)
	})

	t.Run("定員なしの開催枠は-1を返す", func(t *testing.T) {
		mockService := new(MockSessionService)
		mockService.On("GetAvailability", mock.Anything, "session-2").Return(-1, nil)

		h := NewSessionHandler(mockService)

		req := httptest.NewRequest(http.MethodGet, "/sessions/session-2/availability", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("session-2")

		require.NoError(t, h.GetAvailability(c))

		var resp AvailabilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, -1, resp.Remaining)
	})
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/api/middleware"
	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/session"
)

// SessionHandler は開催枠ハンドラー
type SessionHandler struct {
	service SessionServiceInterface
}

// NewSessionHandler はSessionHandlerを作成する
func NewSessionHandler(s SessionServiceInterface) *SessionHandler {
	return &SessionHandler{service: s}
}

type CreateSessionRequest struct {
	ExperienceID  string     `json:"experience_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartTime     time.Time  `json:"start_time" validate:"required"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	MaxCapacity   *int       `json:"max_capacity,omitempty" validate:"omitempty,gte=1"`
	PriceOverride *int       `json:"price_override,omitempty" validate:"omitempty,gte=0"`
}

type UpdateSessionRequest struct {
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	MaxCapacity   *int       `json:"max_capacity,omitempty" validate:"omitempty,gte=1"`
	Active        *bool      `json:"active,omitempty"`
	PriceOverride *int       `json:"price_override,omitempty" validate:"omitempty,gte=0"`
}

type SessionResponse struct {
	ID            string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	ExperienceID  string     `json:"experience_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	MaxCapacity   *int       `json:"max_capacity,omitempty" example:"8"`
	CurrentCount  int        `json:"current_count" example:"3"`
	Remaining     int        `json:"remaining" example:"5"`
	Active        bool       `json:"active"`
	PriceOverride *int       `json:"price_override,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID: s.ID, ExperienceID: s.ExperienceID,
		StartTime: s.StartTime, EndTime: s.EndTime,
		MaxCapacity: s.MaxCapacity, CurrentCount: s.CurrentCount,
		Remaining: s.Remaining(), Active: s.Active,
		PriceOverride: s.PriceOverride, CreatedAt: s.CreatedAt,
	}
}

// Create godoc
// @Summary 開催枠を作成
// @Description 体験の開催枠を作成します（担当ファシリテーターのみ）
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSessionRequest true "開催枠情報"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /sessions [post]
func (h *SessionHandler) Create(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.CreateSession(c.Request().Context(), application.CreateSessionInput{
		Actor: middleware.ActorFrom(c), ExperienceID: req.ExperienceID,
		StartTime: req.StartTime, EndTime: req.EndTime,
		MaxCapacity: req.MaxCapacity, PriceOverride: req.PriceOverride,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(s))
}

// GetByID godoc
// @Summary 開催枠を取得
// @Description 指定IDの開催枠を取得します
// @Tags sessions
// @Produce json
// @Param id path string true "開催枠ID"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(s))
}

// ListByExperience godoc
// @Summary 体験の開催枠一覧を取得
// @Description 指定体験の開催枠一覧を取得します
// @Tags sessions
// @Produce json
// @Param id path string true "体験ID"
// @Success 200 {array} SessionResponse
// @Router /experiences/{id}/sessions [get]
func (h *SessionHandler) ListByExperience(c echo.Context) error {
	sessions, err := h.service.GetSessionsByExperience(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 開催枠を更新
// @Description 開催枠を更新します。定員を現在の予約数未満に減らすことはできません
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "開催枠ID"
// @Param request body UpdateSessionRequest true "更新内容"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c echo.Context) error {
	var req UpdateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	s, err := h.service.UpdateSession(c.Request().Context(), application.UpdateSessionInput{
		Actor: middleware.ActorFrom(c), SessionID: c.Param("id"),
		StartTime: req.StartTime, EndTime: req.EndTime,
		MaxCapacity: req.MaxCapacity, Active: req.Active,
		PriceOverride: req.PriceOverride,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(s))
}

// AvailabilityResponse は空き枠数のレスポンス
type AvailabilityResponse struct {
	SessionID string `json:"session_id"`
	Remaining int    `json:"remaining" example:"5"`
}

// GetAvailability godoc
// @Summary 開催枠の空き数を取得
// @Description 残り予約可能数を返します（-1は無制限）
// @Tags sessions
// @Produce json
// @Param id path string true "開催枠ID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/availability [get]
func (h *SessionHandler) GetAvailability(c echo.Context) error {
	id := c.Param("id")
	remaining, err := h.service.GetAvailability(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{SessionID: id, Remaining: remaining})
}

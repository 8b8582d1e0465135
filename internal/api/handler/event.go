package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/api/middleware"
	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/event"
)

// EventHandler はイベントハンドラー
type EventHandler struct {
	service EventServiceInterface
}

// NewEventHandler はEventHandlerを作成する
func NewEventHandler(s EventServiceInterface) *EventHandler {
	return &EventHandler{service: s}
}

type CreateEventRequest struct {
	Name        string    `json:"name" validate:"required" example:"満月のセレモニー"`
	Description string    `json:"description"`
	Location    string    `json:"location" example:"Cerro del Tepozteco"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	MaxCapacity *int      `json:"max_capacity,omitempty" validate:"omitempty,gte=1" example:"30"`
}

type UpdateEventRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Location    *string    `json:"location,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	MaxCapacity *int       `json:"max_capacity,omitempty" validate:"omitempty,gte=1"`
	Active      *bool      `json:"active,omitempty"`
}

type EventResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name        string    `json:"name" example:"満月のセレモニー"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date"`
	MaxCapacity *int      `json:"max_capacity,omitempty" example:"30"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type AttendeeResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status" example:"registered"`
	CreatedAt time.Time `json:"created_at"`
}

type AttendeeCountResponse struct {
	EventID string `json:"event_id"`
	Count   int    `json:"count" example:"12"`
}

func toEventResponse(e *event.Event) EventResponse {
	return EventResponse{
		ID: e.ID, Name: e.Name, Description: e.Description,
		Location: e.Location, StartDate: e.StartDate,
		MaxCapacity: e.MaxCapacity, Active: e.Active, CreatedAt: e.CreatedAt,
	}
}

func toAttendeeResponse(a *event.Attendee) AttendeeResponse {
	return AttendeeResponse{
		ID: a.ID, EventID: a.EventID, UserID: a.UserID,
		Status: string(a.Status), CreatedAt: a.CreatedAt,
	}
}

// Create godoc
// @Summary イベントを作成
// @Description 新しいイベントを作成します（ファシリテーターのみ）
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.CreateEvent(c.Request().Context(), application.CreateEventInput{
		Actor: middleware.ActorFrom(c), Name: req.Name,
		Description: req.Description, Location: req.Location,
		StartDate: req.StartDate, MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toEventResponse(e))
}

// GetByID godoc
// @Summary イベントを取得
// @Description 指定IDのイベントを取得します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.service.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// List godoc
// @Summary イベント一覧を取得
// @Description 公開中のイベント一覧を取得します
// @Tags events
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} EventResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	limit, offset := parsePagination(c)
	events, err := h.service.ListEvents(c.Request().Context(), limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary イベントを更新
// @Description イベントを更新します（ファシリテーターまたは管理者のみ）
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "更新内容"
// @Success 200 {object} EventResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	e, err := h.service.UpdateEvent(c.Request().Context(), application.UpdateEventInput{
		Actor: middleware.ActorFrom(c), EventID: c.Param("id"),
		Name: req.Name, Description: req.Description, Location: req.Location,
		StartDate: req.StartDate, MaxCapacity: req.MaxCapacity, Active: req.Active,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toEventResponse(e))
}

// Register godoc
// @Summary イベントに出席登録
// @Description ログインユーザーをイベントに登録します。定員到達時は422、重複登録は409
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "イベントID"
// @Success 201 {object} AttendeeResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "既に登録済み"
// @Failure 422 {object} map[string]string "定員到達"
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c echo.Context) error {
	a, err := h.service.Register(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toAttendeeResponse(a))
}

// Unregister godoc
// @Summary イベントの出席登録を取り消し
// @Description ログインユーザーの出席登録をキャンセルします。重複取り消しは409
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "イベントID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "既にキャンセル済み"
// @Router /events/{id}/register [delete]
func (h *EventHandler) Unregister(c echo.Context) error {
	if err := h.service.Unregister(c.Request().Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetAttendeeCount godoc
// @Summary イベントの出席者数を取得
// @Description 有効な出席登録の数を返します
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} AttendeeCountResponse
// @Failure 404 {object} map[string]string
// @Router /events/{id}/attendees/count [get]
func (h *EventHandler) GetAttendeeCount(c echo.Context) error {
	id := c.Param("id")
	count, err := h.service.GetAttendeeCount(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, AttendeeCountResponse{EventID: id, Count: count})
}

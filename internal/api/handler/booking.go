package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/api/middleware"
	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/domain/session"
	"github.com/davorint/amatlan-booking/internal/pkg/ticket"
)

// BookingHandler は予約ハンドラー
type BookingHandler struct {
	service           BookingServiceInterface
	experienceService ExperienceServiceInterface
	sessionService    SessionServiceInterface
	ticketGen         *ticket.Generator
}

// NewBookingHandler はBookingHandlerを作成する
// ticketGenはnil可（チケット発行を無効化）
func NewBookingHandler(
	s BookingServiceInterface,
	es ExperienceServiceInterface,
	ss SessionServiceInterface,
	tg *ticket.Generator,
) *BookingHandler {
	return &BookingHandler{service: s, experienceService: es, sessionService: ss, ticketGen: tg}
}

type ContactInfoRequest struct {
	Name  string `json:"name" validate:"required" example:"María López"`
	Email string `json:"email" validate:"required,email" example:"maria@example.com"`
	Phone string `json:"phone,omitempty" example:"+52-777-123-4567"`
}

type CreateBookingRequest struct {
	ExperienceID    string             `json:"experience_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SessionID       *string            `json:"session_id,omitempty"`
	Participants    int                `json:"participants" validate:"required,gte=1,lte=20" example:"2"`
	ContactInfo     ContactInfoRequest `json:"contact_info" validate:"required"`
	SpecialRequests string             `json:"special_requests,omitempty"`
}

type UpdateBookingRequest struct {
	Status          *string             `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	Participants    *int                `json:"participants,omitempty" validate:"omitempty,gte=1,lte=20"`
	ContactInfo     *ContactInfoRequest `json:"contact_info,omitempty"`
	SpecialRequests *string             `json:"special_requests,omitempty"`
}

type ContactInfoResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type BookingResponse struct {
	ID              string              `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID          string              `json:"user_id" example:"user-123"`
	ExperienceID    string              `json:"experience_id"`
	SessionID       *string             `json:"session_id,omitempty"`
	Participants    int                 `json:"participants" example:"2"`
	TotalPrice      int                 `json:"total_price" example:"170000"`
	Status          string              `json:"status" example:"pending"`
	ContactInfo     ContactInfoResponse `json:"contact_info"`
	SpecialRequests string              `json:"special_requests,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, UserID: b.UserID, ExperienceID: b.ExperienceID,
		SessionID: b.SessionID, Participants: b.Participants,
		TotalPrice: b.TotalPrice, Status: string(b.Status),
		ContactInfo: ContactInfoResponse{
			Name:  b.ContactInfo.Name,
			Email: b.ContactInfo.Email,
			Phone: b.ContactInfo.Phone,
		},
		SpecialRequests: b.SpecialRequests,
		CreatedAt:       b.CreatedAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 体験の予約を作成します。開催枠指定時は定員を確保します
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "定員超過"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		Actor:        middleware.ActorFrom(c),
		ExperienceID: req.ExperienceID,
		SessionID:    req.SessionID,
		Participants: req.Participants,
		ContactInfo: booking.ContactInfo{
			Name:  req.ContactInfo.Name,
			Email: req.ContactInfo.Email,
			Phone: req.ContactInfo.Phone,
		},
		SpecialRequests: req.SpecialRequests,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Description 指定IDの予約を取得します（本人・担当ファシリテーター・管理者のみ）
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetUserBookings godoc
// @Summary 自分の予約一覧を取得
// @Description ログインユーザーの予約一覧を取得します
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Router /bookings [get]
func (h *BookingHandler) GetUserBookings(c echo.Context) error {
	limit, offset := parsePagination(c)
	bookings, err := h.service.GetUserBookings(c.Request().Context(), middleware.ActorFrom(c), limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 予約を更新
// @Description 予約内容を更新します。人数変更は枠の空きを要します。合計金額は再計算されません
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Param request body UpdateBookingRequest true "更新内容"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string "許可されていない状態遷移"
// @Failure 422 {object} map[string]string "定員超過"
// @Router /bookings/{id} [put]
func (h *BookingHandler) Update(c echo.Context) error {
	var req UpdateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	input := application.UpdateBookingInput{
		Actor:           middleware.ActorFrom(c),
		BookingID:       c.Param("id"),
		Participants:    req.Participants,
		SpecialRequests: req.SpecialRequests,
	}
	if req.Status != nil {
		st := booking.Status(*req.Status)
		input.Status = &st
	}
	if req.ContactInfo != nil {
		input.ContactInfo = &booking.ContactInfo{
			Name:  req.ContactInfo.Name,
			Email: req.ContactInfo.Email,
			Phone: req.ContactInfo.Phone,
		}
	}
	b, err := h.service.UpdateBooking(c.Request().Context(), input)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし確保していた枠を解放します。重複キャンセルは409
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "既にキャンセル済み"
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c echo.Context) error {
	b, err := h.service.CancelBooking(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// GetTicket godoc
// @Summary 予約チケットPDFを取得
// @Description QRコード付きのチケットPDFをダウンロードします
// @Tags bookings
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "予約ID"
// @Success 200 {file} binary
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id}/ticket [get]
func (h *BookingHandler) GetTicket(c echo.Context) error {
	if h.ticketGen == nil {
		return echo.NewHTTPError(http.StatusNotFound, "チケット発行は無効です")
	}
	ctx := c.Request().Context()
	b, err := h.service.GetBooking(ctx, middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	exp, err := h.experienceService.GetExperience(ctx, b.ExperienceID)
	if err != nil {
		return httpError(err)
	}
	var sess *session.Session
	if b.SessionID != nil {
		sess, err = h.sessionService.GetSession(ctx, *b.SessionID)
		if err != nil {
			return httpError(err)
		}
	}
	pdfBytes, err := h.ticketGen.Generate(ticket.TicketData{Booking: b, Experience: exp, Session: sess})
	if err != nil {
		return httpError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=ticket-%s.pdf", b.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/api/middleware"
	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/review"
)

// ReviewHandler はレビューハンドラー
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを作成する
func NewReviewHandler(s ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: s}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5" example:"5"`
	Comment string `json:"comment" example:"人生が変わる体験でした"`
}

type ReviewResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ExperienceID string    `json:"experience_id"`
	Rating       int       `json:"rating" example:"5"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

func toReviewResponse(r *review.Review) ReviewResponse {
	return ReviewResponse{
		ID: r.ID, UserID: r.UserID, ExperienceID: r.ExperienceID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt,
	}
}

// Create godoc
// @Summary レビューを投稿
// @Description 体験へのレビューを投稿します。1ユーザー1体験1件まで
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "体験ID"
// @Param request body CreateReviewRequest true "レビュー内容"
// @Success 201 {object} ReviewResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "既にレビュー済み"
// @Router /experiences/{id}/reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	r, err := h.service.CreateReview(c.Request().Context(), application.CreateReviewInput{
		Actor: middleware.ActorFrom(c), ExperienceID: c.Param("id"),
		Rating: req.Rating, Comment: req.Comment,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toReviewResponse(r))
}

// ListByExperience godoc
// @Summary 体験のレビュー一覧を取得
// @Description 指定体験のレビュー一覧を取得します
// @Tags reviews
// @Produce json
// @Param id path string true "体験ID"
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ReviewResponse
// @Router /experiences/{id}/reviews [get]
func (h *ReviewHandler) ListByExperience(c echo.Context) error {
	limit, offset := parsePagination(c)
	reviews, err := h.service.GetReviewsByExperience(c.Request().Context(), c.Param("id"), limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		resp = append(resp, toReviewResponse(r))
	}
	return c.JSON(http.StatusOK, resp)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/api/middleware"
	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
)

// ExperienceHandler は体験ハンドラー
type ExperienceHandler struct {
	service ExperienceServiceInterface
}

// NewExperienceHandler はExperienceHandlerを作成する
func NewExperienceHandler(s ExperienceServiceInterface) *ExperienceHandler {
	return &ExperienceHandler{service: s}
}

type CreateExperienceRequest struct {
	Name        string `json:"name" validate:"required" example:"テマスカル浄化体験"`
	Description string `json:"description" example:"伝統的な蒸気浴の儀式"`
	Category    string `json:"category" example:"temazcal"`
	Price       int    `json:"price" validate:"gte=0" example:"85000"`
}

type UpdateExperienceRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Price       *int    `json:"price,omitempty" validate:"omitempty,gte=0"`
	Active      *bool   `json:"active,omitempty"`
}

type ExperienceResponse struct {
	ID            string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	FacilitatorID string    `json:"facilitator_id" example:"user-123"`
	Name          string    `json:"name" example:"テマスカル浄化体験"`
	Description   string    `json:"description"`
	Category      string    `json:"category" example:"temazcal"`
	Price         int       `json:"price" example:"85000"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

func toExperienceResponse(e *experience.Experience) ExperienceResponse {
	return ExperienceResponse{
		ID: e.ID, FacilitatorID: e.FacilitatorID, Name: e.Name,
		Description: e.Description, Category: e.Category,
		Price: e.Price, Active: e.Active, CreatedAt: e.CreatedAt,
	}
}

// Create godoc
// @Summary 体験を作成
// @Description 新しい体験を作成します（ファシリテーターのみ）
// @Tags experiences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExperienceRequest true "体験情報"
// @Success 201 {object} ExperienceResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /experiences [post]
func (h *ExperienceHandler) Create(c echo.Context) error {
	var req CreateExperienceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	exp, err := h.service.CreateExperience(c.Request().Context(), application.CreateExperienceInput{
		Actor: middleware.ActorFrom(c), Name: req.Name,
		Description: req.Description, Category: req.Category, Price: req.Price,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toExperienceResponse(exp))
}

// GetByID godoc
// @Summary 体験を取得
// @Description 指定IDの体験を取得します
// @Tags experiences
// @Produce json
// @Param id path string true "体験ID"
// @Success 200 {object} ExperienceResponse
// @Failure 404 {object} map[string]string
// @Router /experiences/{id} [get]
func (h *ExperienceHandler) GetByID(c echo.Context) error {
	exp, err := h.service.GetExperience(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toExperienceResponse(exp))
}

// List godoc
// @Summary 体験一覧を取得
// @Description 公開中の体験一覧を取得します
// @Tags experiences
// @Produce json
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} ExperienceResponse
// @Router /experiences [get]
func (h *ExperienceHandler) List(c echo.Context) error {
	limit, offset := parsePagination(c)
	exps, err := h.service.ListExperiences(c.Request().Context(), limit, offset)
	if err != nil {
		return httpError(err)
	}
	resp := make([]ExperienceResponse, 0, len(exps))
	for _, e := range exps {
		resp = append(resp, toExperienceResponse(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary 体験を更新
// @Description 体験を更新します（担当ファシリテーターまたは管理者のみ）
// @Tags experiences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "体験ID"
// @Param request body UpdateExperienceRequest true "更新内容"
// @Success 200 {object} ExperienceResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /experiences/{id} [put]
func (h *ExperienceHandler) Update(c echo.Context) error {
	var req UpdateExperienceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	exp, err := h.service.UpdateExperience(c.Request().Context(), application.UpdateExperienceInput{
		Actor: middleware.ActorFrom(c), ExperienceID: c.Param("id"),
		Name: req.Name, Description: req.Description,
		Category: req.Category, Price: req.Price, Active: req.Active,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toExperienceResponse(exp))
}

// parsePagination はlimit/offsetクエリパラメータを読み取る
func parsePagination(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

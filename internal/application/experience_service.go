package application

import (
	"context"
	"fmt"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/user"
)

// ExperienceService は体験のユースケースを提供する
type ExperienceService struct {
	experienceRepo experience.Repository
}

// NewExperienceService はExperienceServiceを作成する
func NewExperienceService(er experience.Repository) *ExperienceService {
	return &ExperienceService{experienceRepo: er}
}

// CreateExperienceInput は体験作成の入力
type CreateExperienceInput struct {
	Actor       authz.Actor
	Name        string
	Description string
	Category    string
	Price       int
}

// CreateExperience は体験を作成する（ファシリテーターまたは管理者のみ）
// 作成者が体験のファシリテーターとなる
func (s *ExperienceService) CreateExperience(ctx context.Context, input CreateExperienceInput) (*experience.Experience, error) {
	if err := authz.RequireRole(input.Actor, user.RoleFacilitator, user.RoleAdmin); err != nil {
		return nil, err
	}
	exp := experience.NewExperience(input.Actor.UserID, input.Name, input.Description, input.Category, input.Price)
	if err := exp.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.experienceRepo.Create(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// GetExperience はIDから体験を取得する
func (s *ExperienceService) GetExperience(ctx context.Context, id string) (*experience.Experience, error) {
	return s.experienceRepo.GetByID(ctx, id)
}

// ListExperiences は公開中の体験一覧を取得する
func (s *ExperienceService) ListExperiences(ctx context.Context, limit, offset int) ([]*experience.Experience, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.experienceRepo.List(ctx, limit, offset)
}

// UpdateExperienceInput は体験更新の入力（nilのフィールドは変更なし）
type UpdateExperienceInput struct {
	Actor        authz.Actor
	ExperienceID string
	Name         *string
	Description  *string
	Category     *string
	Price        *int
	Active       *bool
}

// UpdateExperience は体験を更新する（ファシリテーター本人または管理者のみ）
func (s *ExperienceService) UpdateExperience(ctx context.Context, input UpdateExperienceInput) (*experience.Experience, error) {
	exp, err := s.experienceRepo.GetByID(ctx, input.ExperienceID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(input.Actor, authz.Resource{FacilitatorID: exp.FacilitatorID}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		exp.Name = *input.Name
	}
	if input.Description != nil {
		exp.Description = *input.Description
	}
	if input.Category != nil {
		exp.Category = *input.Category
	}
	if input.Price != nil {
		exp.Price = *input.Price
	}
	if input.Active != nil {
		exp.Active = *input.Active
	}
	if err := exp.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.experienceRepo.Update(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

package application

import (
	"context"
	"fmt"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/review"
)

// ReviewService はレビューのユースケースを提供する
type ReviewService struct {
	reviewRepo     review.Repository
	experienceRepo experience.Repository
}

// NewReviewService はReviewServiceを作成する
func NewReviewService(rr review.Repository, er experience.Repository) *ReviewService {
	return &ReviewService{reviewRepo: rr, experienceRepo: er}
}

// CreateReviewInput はレビュー作成の入力
type CreateReviewInput struct {
	Actor        authz.Actor
	ExperienceID string
	Rating       int
	Comment      string
}

// CreateReview はレビューを作成する
// 1ユーザーにつき1体験1レビューまで（重複はErrDuplicateReview）
func (s *ReviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*review.Review, error) {
	if _, err := s.experienceRepo.GetByID(ctx, input.ExperienceID); err != nil {
		return nil, err
	}
	r := review.NewReview(input.Actor.UserID, input.ExperienceID, input.Rating, input.Comment)
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.reviewRepo.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetReviewsByExperience は体験のレビュー一覧を取得する
func (s *ReviewService) GetReviewsByExperience(ctx context.Context, experienceID string, limit, offset int) ([]*review.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.reviewRepo.ListByExperienceID(ctx, experienceID, limit, offset)
}

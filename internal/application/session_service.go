package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/session"
	redisinfra "github.com/davorint/amatlan-booking/internal/infrastructure/redis"
)

// 残り枠数キャッシュの有効期限
const availabilityCacheTTL = 30 * time.Second

// SessionService は開催枠のユースケースを提供する
type SessionService struct {
	sessionRepo    session.Repository
	experienceRepo experience.Repository
	cache          *redisinfra.AvailabilityCache
}

// NewSessionService はSessionServiceを作成する（cacheはnil可）
func NewSessionService(sr session.Repository, er experience.Repository, cache *redisinfra.AvailabilityCache) *SessionService {
	return &SessionService{sessionRepo: sr, experienceRepo: er, cache: cache}
}

// CreateSessionInput は開催枠作成の入力
type CreateSessionInput struct {
	Actor         authz.Actor
	ExperienceID  string
	StartTime     time.Time
	EndTime       *time.Time
	MaxCapacity   *int
	PriceOverride *int
}

// CreateSession は開催枠を作成する（体験のファシリテーターまたは管理者のみ）
func (s *SessionService) CreateSession(ctx context.Context, input CreateSessionInput) (*session.Session, error) {
	exp, err := s.experienceRepo.GetByID(ctx, input.ExperienceID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(input.Actor, authz.Resource{FacilitatorID: exp.FacilitatorID}); err != nil {
		return nil, err
	}

	sess := session.NewSession(input.ExperienceID, input.StartTime, input.EndTime, input.MaxCapacity, input.PriceOverride)
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.sessionRepo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession はIDから開催枠を取得する
func (s *SessionService) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

// GetSessionsByExperience は体験の開催枠一覧を取得する
func (s *SessionService) GetSessionsByExperience(ctx context.Context, experienceID string) ([]*session.Session, error) {
	return s.sessionRepo.ListByExperienceID(ctx, experienceID)
}

// UpdateSessionInput は開催枠更新の入力（nilのフィールドは変更なし）
type UpdateSessionInput struct {
	Actor         authz.Actor
	SessionID     string
	StartTime     *time.Time
	EndTime       *time.Time
	MaxCapacity   *int
	Active        *bool
	PriceOverride *int
}

// UpdateSession は開催枠を更新する（体験のファシリテーターまたは管理者のみ）
// 定員を現在の予約数未満に減らす更新は拒否される
func (s *SessionService) UpdateSession(ctx context.Context, input UpdateSessionInput) (*session.Session, error) {
	sess, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	exp, err := s.experienceRepo.GetByID(ctx, sess.ExperienceID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(input.Actor, authz.Resource{FacilitatorID: exp.FacilitatorID}); err != nil {
		return nil, err
	}

	if input.StartTime != nil {
		sess.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		sess.EndTime = input.EndTime
	}
	if input.MaxCapacity != nil {
		sess.MaxCapacity = input.MaxCapacity
	}
	if input.Active != nil {
		sess.Active = *input.Active
	}
	if input.PriceOverride != nil {
		sess.PriceOverride = input.PriceOverride
	}
	if err := sess.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.sessionRepo.Update(ctx, sess); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, sess.ID)
	}
	return sess, nil
}

// GetAvailability は開催枠の残り枠数を返す（無制限の場合は-1）
// キャッシュ経由で読むが、予約可否の最終判定はDB側で行われる
func (s *SessionService) GetAvailability(ctx context.Context, sessionID string) (int, error) {
	if s.cache != nil {
		remaining, err := s.cache.GetRemaining(ctx, sessionID)
		if err == nil {
			return remaining, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			// キャッシュ障害時はDBへフォールバック
			remaining = 0
		}
	}

	sess, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	remaining := sess.Remaining()
	if s.cache != nil {
		_ = s.cache.SetRemaining(ctx, sessionID, remaining, availabilityCacheTTL)
	}
	return remaining, nil
}

package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/session"
	"github.com/davorint/amatlan-booking/internal/domain/transaction"
	redisinfra "github.com/davorint/amatlan-booking/internal/infrastructure/redis"
	"github.com/davorint/amatlan-booking/internal/pkg/logger"
	"github.com/davorint/amatlan-booking/internal/pkg/metrics"
)

// 分散ロックの設定（開催枠単位で予約処理を直列化）
const (
	lockTTL        = 10 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// BookingService は予約のユースケースを提供する
type BookingService struct {
	txManager      transaction.Manager
	bookingRepo    booking.Repository
	sessionRepo    session.Repository
	experienceRepo experience.Repository
	lockManager    *redisinfra.LockManager
	cache          *redisinfra.AvailabilityCache
	publisher      EventPublisher
	metrics        *metrics.Metrics
}

// NewBookingService はBookingServiceを作成する
// lockManager / cache / publisher / m はnil可（機能を無効化）
func NewBookingService(
	txManager transaction.Manager,
	br booking.Repository,
	sr session.Repository,
	er experience.Repository,
	lm *redisinfra.LockManager,
	cache *redisinfra.AvailabilityCache,
	pub EventPublisher,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		txManager:      txManager,
		bookingRepo:    br,
		sessionRepo:    sr,
		experienceRepo: er,
		lockManager:    lm,
		cache:          cache,
		publisher:      pub,
		metrics:        m,
	}
}

// CreateBookingInput は予約作成の入力
type CreateBookingInput struct {
	Actor           authz.Actor
	ExperienceID    string
	SessionID       *string
	Participants    int
	ContactInfo     booking.ContactInfo
	SpecialRequests string
}

// CreateBooking は予約を作成する
// 開催枠が指定された場合は枠の確保（定員チェック込み）を
// 予約作成と同一トランザクションで行う
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	exp, err := s.experienceRepo.GetByID(ctx, input.ExperienceID)
	if err != nil {
		s.recordBooking("create", "error")
		return nil, err
	}
	if !exp.Active {
		s.recordBooking("create", "error")
		return nil, experience.ErrExperienceNotActive
	}

	unitPrice := exp.Price
	var sess *session.Session

	if input.SessionID != nil && *input.SessionID != "" {
		// 分散ロックで同一開催枠への予約を直列化
		// （定員チェック自体は条件付きUPDATEが最終防衛線）
		if s.lockManager != nil {
			lock, err := s.lockManager.AcquireLockWithRetry(ctx, "session:"+*input.SessionID, lockTTL, lockMaxRetries, lockRetryDelay)
			if err != nil {
				if errors.Is(err, redisinfra.ErrLockNotAcquired) {
					s.recordBooking("create", "lock_failed")
					return nil, fmt.Errorf("開催枠が他のユーザーによって処理中です")
				}
				s.recordBooking("create", "error")
				return nil, fmt.Errorf("ロック取得に失敗: %w", err)
			}
			defer lock.Release(ctx)
		}

		sess, err = s.sessionRepo.GetByID(ctx, *input.SessionID)
		if err != nil {
			s.recordBooking("create", "error")
			return nil, err
		}
		if sess.ExperienceID != input.ExperienceID {
			s.recordBooking("create", "error")
			return nil, session.ErrSessionNotFound
		}
		unitPrice = sess.UnitPrice(exp.Price)
	}

	b := booking.NewBooking(input.Actor.UserID, input.ExperienceID, input.SessionID, input.Participants, unitPrice, input.ContactInfo, input.SpecialRequests)
	if err := b.Validate(); err != nil {
		s.recordBooking("create", "error")
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.recordBooking("create", "error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if b.HasSession() {
		if err := s.sessionRepo.Reserve(ctx, tx, *b.SessionID, b.Participants); err != nil {
			if errors.Is(err, session.ErrCapacityExceeded) {
				s.recordBooking("create", "capacity_exceeded")
			} else {
				s.recordBooking("create", "error")
			}
			return nil, err
		}
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		s.recordBooking("create", "error")
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.recordBooking("create", "error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.recordBooking("create", "success")
	s.invalidateCache(ctx, b.SessionID)
	s.publish(func(p EventPublisher) error { return p.PublishBookingCreated(b) })
	return b, nil
}

// GetBooking は予約を取得する（本人・ファシリテーター・管理者のみ）
func (s *BookingService) GetBooking(ctx context.Context, actor authz.Actor, id string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetUserBookings はユーザー自身の予約一覧を取得する
func (s *BookingService) GetUserBookings(ctx context.Context, actor authz.Actor, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, actor.UserID, limit, offset)
}

// UpdateBookingInput は予約更新の入力（nilのフィールドは変更なし）
type UpdateBookingInput struct {
	Actor           authz.Actor
	BookingID       string
	Status          *booking.Status
	Participants    *int
	ContactInfo     *booking.ContactInfo
	SpecialRequests *string
}

// UpdateBooking は予約を更新する
// 人数変更は枠の増減（定員チェック込み）を伴う
// 合計金額は作成時に確定した値のまま再計算しない
func (s *BookingService) UpdateBooking(ctx context.Context, input UpdateBookingInput) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		s.recordBooking("update", "error")
		return nil, err
	}
	if err := s.authorize(ctx, input.Actor, b); err != nil {
		return nil, err
	}

	// キャンセル指定は専用の解放経路へ（二重解放ガード付き）
	if input.Status != nil && *input.Status == booking.StatusCancelled {
		return s.CancelBooking(ctx, input.Actor, input.BookingID)
	}

	if input.ContactInfo != nil {
		b.ContactInfo = *input.ContactInfo
	}
	if input.SpecialRequests != nil {
		b.SpecialRequests = *input.SpecialRequests
	}

	delta := 0
	if input.Participants != nil && *input.Participants != b.Participants {
		if *input.Participants < booking.MinParticipants || *input.Participants > booking.MaxParticipants {
			s.recordBooking("update", "error")
			return nil, booking.ErrInvalidParticipants
		}
		if !b.IsActive() {
			s.recordBooking("update", "error")
			return nil, booking.ErrInvalidStatusTransition
		}
		delta = *input.Participants - b.Participants
		b.Participants = *input.Participants
	}

	if input.Status != nil && *input.Status != b.Status {
		switch *input.Status {
		case booking.StatusConfirmed:
			err = b.Confirm()
		case booking.StatusCompleted:
			err = b.Complete()
		default:
			err = booking.ErrInvalidStatusTransition
		}
		if err != nil {
			s.recordBooking("update", "error")
			return nil, err
		}
	}

	b.UpdatedAt = time.Now()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.recordBooking("update", "error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if delta != 0 && b.HasSession() {
		if err := s.sessionRepo.Adjust(ctx, tx, *b.SessionID, delta); err != nil {
			if errors.Is(err, session.ErrCapacityExceeded) {
				s.recordBooking("update", "capacity_exceeded")
			} else {
				s.recordBooking("update", "error")
			}
			return nil, err
		}
	}
	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		s.recordBooking("update", "error")
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.recordBooking("update", "error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.recordBooking("update", "success")
	s.invalidateCache(ctx, b.SessionID)
	return b, nil
}

// CancelBooking は予約をキャンセルし、保持していた枠を解放する
// 状態遷移と枠の解放は同一トランザクションで行い、
// 条件付きUPDATEにより解放は正確に1回だけ起きる
func (s *BookingService) CancelBooking(ctx context.Context, actor authz.Actor, id string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		s.recordBooking("cancel", "error")
		return nil, err
	}
	if err := s.authorize(ctx, actor, b); err != nil {
		return nil, err
	}
	if b.Status == booking.StatusCompleted {
		s.recordBooking("cancel", "error")
		return nil, booking.ErrInvalidStatusTransition
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.recordBooking("cancel", "error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	cancelled, err := s.bookingRepo.MarkCancelled(ctx, tx, id)
	if err != nil {
		s.recordBooking("cancel", "error")
		return nil, err
	}
	if !cancelled {
		s.recordBooking("cancel", "conflict")
		return nil, booking.ErrBookingAlreadyCancelled
	}
	if b.HasSession() {
		if err := s.sessionRepo.Release(ctx, tx, *b.SessionID, b.Participants); err != nil {
			s.recordBooking("cancel", "error")
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		s.recordBooking("cancel", "error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	b.Status = booking.StatusCancelled
	b.UpdatedAt = time.Now()

	s.recordBooking("cancel", "success")
	s.invalidateCache(ctx, b.SessionID)
	s.publish(func(p EventPublisher) error { return p.PublishBookingCancelled(b) })
	return b, nil
}

// authorize は予約への操作権限を確認する
// 本人・体験のファシリテーター・管理者のいずれかであれば許可
func (s *BookingService) authorize(ctx context.Context, actor authz.Actor, b *booking.Booking) error {
	resource := authz.Resource{OwnerID: b.UserID}
	if exp, err := s.experienceRepo.GetByID(ctx, b.ExperienceID); err == nil {
		resource.FacilitatorID = exp.FacilitatorID
	}
	return authz.Authorize(actor, resource)
}

func (s *BookingService) recordBooking(operation, status string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(operation, status).Inc()
	}
}

func (s *BookingService) invalidateCache(ctx context.Context, sessionID *string) {
	if s.cache == nil || sessionID == nil || *sessionID == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, *sessionID); err != nil {
		logger.Warn("キャッシュ無効化に失敗", zap.String("session_id", *sessionID), zap.Error(err))
	}
}

func (s *BookingService) publish(fn func(EventPublisher) error) {
	if s.publisher == nil {
		return
	}
	// 発行失敗は予約処理の結果に影響させない
	if err := fn(s.publisher); err != nil {
		logger.Warn("イベント発行に失敗", zap.Error(err))
	}
}

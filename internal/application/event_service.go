package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/event"
	"github.com/davorint/amatlan-booking/internal/domain/transaction"
	"github.com/davorint/amatlan-booking/internal/domain/user"
	"github.com/davorint/amatlan-booking/internal/pkg/logger"
	"github.com/davorint/amatlan-booking/internal/pkg/metrics"
)

// EventService はイベントと出席登録のユースケースを提供する
type EventService struct {
	txManager    transaction.Manager
	eventRepo    event.Repository
	attendeeRepo event.AttendeeRepository
	publisher    EventPublisher
	metrics      *metrics.Metrics
}

// NewEventService はEventServiceを作成する（publisher / mはnil可）
func NewEventService(txManager transaction.Manager, er event.Repository, ar event.AttendeeRepository, pub EventPublisher, m *metrics.Metrics) *EventService {
	return &EventService{txManager: txManager, eventRepo: er, attendeeRepo: ar, publisher: pub, metrics: m}
}

// CreateEventInput はイベント作成の入力
type CreateEventInput struct {
	Actor       authz.Actor
	Name        string
	Description string
	Location    string
	StartDate   time.Time
	MaxCapacity *int
}

// CreateEvent はイベントを作成する（ファシリテーターまたは管理者のみ）
func (s *EventService) CreateEvent(ctx context.Context, input CreateEventInput) (*event.Event, error) {
	if err := authz.RequireRole(input.Actor, user.RoleFacilitator, user.RoleAdmin); err != nil {
		return nil, err
	}
	e := event.NewEvent(input.Name, input.Description, input.Location, input.StartDate, input.MaxCapacity)
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetEvent はIDからイベントを取得する
func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

// ListEvents はイベント一覧を取得する
func (s *EventService) ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.eventRepo.List(ctx, limit, offset)
}

// UpdateEventInput はイベント更新の入力（nilのフィールドは変更なし）
type UpdateEventInput struct {
	Actor       authz.Actor
	EventID     string
	Name        *string
	Description *string
	Location    *string
	StartDate   *time.Time
	MaxCapacity *int
	Active      *bool
}

// UpdateEvent はイベントを更新する（ファシリテーターまたは管理者のみ）
func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	if err := authz.RequireRole(input.Actor, user.RoleFacilitator, user.RoleAdmin); err != nil {
		return nil, err
	}
	e, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		e.Name = *input.Name
	}
	if input.Description != nil {
		e.Description = *input.Description
	}
	if input.Location != nil {
		e.Location = *input.Location
	}
	if input.StartDate != nil {
		e.StartDate = *input.StartDate
	}
	if input.MaxCapacity != nil {
		e.MaxCapacity = input.MaxCapacity
	}
	if input.Active != nil {
		e.Active = *input.Active
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Register はユーザーをイベントに登録する
// イベント行をロックした上で定員チェックと登録を行うため、
// 並行登録が定員を突破することはない
// キャンセル済みの登録がある場合は同じ行を再有効化する
func (s *EventService) Register(ctx context.Context, actor authz.Actor, eventID string) (*event.Attendee, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.recordRegistration("error")
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	e, err := s.eventRepo.GetByIDForUpdate(ctx, tx, eventID)
	if err != nil {
		s.recordRegistration("error")
		return nil, err
	}
	if !e.IsRegistrationOpen(time.Now()) {
		s.recordRegistration("error")
		return nil, event.ErrEventNotOpen
	}

	existing, err := s.attendeeRepo.GetByEventAndUser(ctx, eventID, actor.UserID)
	if err != nil && !errors.Is(err, event.ErrRegistrationNotFound) {
		s.recordRegistration("error")
		return nil, err
	}

	var attendee *event.Attendee
	if existing != nil {
		// 有効な登録が既にある場合は重複
		if existing.IsCounted() {
			s.recordRegistration("conflict")
			return nil, event.ErrAlreadyRegistered
		}
		if err := s.checkCapacity(ctx, tx, e); err != nil {
			return nil, err
		}
		if err := existing.Reactivate(); err != nil {
			s.recordRegistration("error")
			return nil, err
		}
		if err := s.attendeeRepo.Update(ctx, tx, existing); err != nil {
			s.recordRegistration("error")
			return nil, err
		}
		attendee = existing
	} else {
		if err := s.checkCapacity(ctx, tx, e); err != nil {
			return nil, err
		}
		attendee = event.NewAttendee(eventID, actor.UserID)
		if err := s.attendeeRepo.Create(ctx, tx, attendee); err != nil {
			if errors.Is(err, event.ErrAlreadyRegistered) {
				s.recordRegistration("conflict")
			} else {
				s.recordRegistration("error")
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		s.recordRegistration("error")
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.recordRegistration("success")
	if s.publisher != nil {
		if err := s.publisher.PublishEventRegistered(eventID, actor.UserID); err != nil {
			logger.Warn("イベント発行に失敗", zap.Error(err))
		}
	}
	return attendee, nil
}

// checkCapacity は定員に空きがあるかを確認する（イベント行ロック下で呼ぶ）
func (s *EventService) checkCapacity(ctx context.Context, tx transaction.Tx, e *event.Event) error {
	count, err := s.attendeeRepo.CountActive(ctx, tx, e.ID)
	if err != nil {
		s.recordRegistration("error")
		return err
	}
	if !e.HasCapacityFor(count) {
		s.recordRegistration("capacity_exceeded")
		return event.ErrEventCapacityExceeded
	}
	return nil
}

// Unregister はイベントの出席登録をキャンセルする
// 条件付きUPDATEにより、既にキャンセル済みであれば拒否される
func (s *EventService) Unregister(ctx context.Context, actor authz.Actor, eventID string) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	cancelled, err := s.attendeeRepo.MarkCancelled(ctx, tx, eventID, actor.UserID)
	if err != nil {
		return err
	}
	if !cancelled {
		// 行が存在しないのか既にキャンセル済みなのかを判別
		if _, err := s.attendeeRepo.GetByEventAndUser(ctx, eventID, actor.UserID); err != nil {
			return err
		}
		return event.ErrRegistrationAlreadyCancelled
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// GetAttendeeCount は定員に計上される出席者数を返す
func (s *EventService) GetAttendeeCount(ctx context.Context, eventID string) (int, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return 0, err
	}
	return s.attendeeRepo.CountActive(ctx, nil, eventID)
}

func (s *EventService) recordRegistration(status string) {
	if s.metrics != nil {
		s.metrics.EventRegistrationsTotal.WithLabelValues(status).Inc()
	}
}

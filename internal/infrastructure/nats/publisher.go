package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/pkg/logger"
)

// Publisher は予約関連イベントをNATSへ発行する
// 通知ワーカー等の下流コンシューマー向け
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher はNATSへ接続しPublisherを作成する
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("NATS接続に失敗しました: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// Close は接続を閉じる
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}

// BookingEvent は予約イベントのペイロード
type BookingEvent struct {
	EventType    string    `json:"event_type"`
	BookingID    string    `json:"booking_id"`
	UserID       string    `json:"user_id"`
	ExperienceID string    `json:"experience_id"`
	SessionID    *string   `json:"session_id,omitempty"`
	Participants int       `json:"participants"`
	TotalPrice   int       `json:"total_price"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// RegistrationEvent はイベント出席登録のペイロード
type RegistrationEvent struct {
	EventType  string    `json:"event_type"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PublishBookingCreated は予約作成イベントを発行する
func (p *Publisher) PublishBookingCreated(b *booking.Booking) error {
	return p.publishBooking("booking.created", b)
}

// PublishBookingCancelled は予約キャンセルイベントを発行する
func (p *Publisher) PublishBookingCancelled(b *booking.Booking) error {
	return p.publishBooking("booking.cancelled", b)
}

func (p *Publisher) publishBooking(subject string, b *booking.Booking) error {
	payload, err := json.Marshal(BookingEvent{
		EventType:    subject,
		BookingID:    b.ID,
		UserID:       b.UserID,
		ExperienceID: b.ExperienceID,
		SessionID:    b.SessionID,
		Participants: b.Participants,
		TotalPrice:   b.TotalPrice,
		OccurredAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("NATS発行に失敗: %w", err)
	}
	logger.Debug("イベントを発行", zap.String("subject", subject), zap.String("booking_id", b.ID))
	return nil
}

// PublishEventRegistered はイベント出席登録イベントを発行する
func (p *Publisher) PublishEventRegistered(eventID, userID string) error {
	subject := "event.registered"
	payload, err := json.Marshal(RegistrationEvent{
		EventType:  subject,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("NATS発行に失敗: %w", err)
	}
	logger.Debug("イベントを発行", zap.String("subject", subject), zap.String("event_id", eventID))
	return nil
}

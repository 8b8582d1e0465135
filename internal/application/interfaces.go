package application

import (
	"github.com/davorint/amatlan-booking/internal/domain/booking"
)

// EventPublisher は予約関連イベントの発行先インターフェース
// nilの場合は発行をスキップする（発行失敗は予約処理を失敗させない）
type EventPublisher interface {
	PublishBookingCreated(b *booking.Booking) error
	PublishBookingCancelled(b *booking.Booking) error
	PublishEventRegistered(eventID, userID string) error
}

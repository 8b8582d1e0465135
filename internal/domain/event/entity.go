package event

import "time"

// Event はイベント（セレモニー、満月の集い等）エンティティを表す
// 出席者数はキャッシュせず、出席レコードから都度算出する
type Event struct {
	ID          string
	Name        string
	Description string
	Location    string
	StartDate   time.Time
	MaxCapacity *int // nilは無制限
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent は新しいイベントを作成する
func NewEvent(name, description, location string, startDate time.Time, maxCapacity *int) *Event {
	now := time.Now()
	return &Event{
		Name:        name,
		Description: description,
		Location:    location,
		StartDate:   startDate,
		MaxCapacity: maxCapacity,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Name == "" {
		return ErrEventNameRequired
	}
	if e.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if e.MaxCapacity != nil && *e.MaxCapacity <= 0 {
		return ErrInvalidMaxCapacity
	}
	return nil
}

// IsRegistrationOpen は登録を受け付けられる状態かを返す
// （開催済みイベントには登録できない）
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	return e.Active && e.StartDate.After(now)
}

// HasCapacityFor は現在の出席者数countに対して追加登録が可能かを返す
func (e *Event) HasCapacityFor(count int) bool {
	if e.MaxCapacity == nil {
		return true
	}
	return count < *e.MaxCapacity
}

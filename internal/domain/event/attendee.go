package event

import "time"

// AttendeeStatus は出席登録の状態を表す
type AttendeeStatus string

const (
	AttendeeRegistered AttendeeStatus = "registered"
	AttendeeConfirmed  AttendeeStatus = "confirmed"
	AttendeeCancelled  AttendeeStatus = "cancelled"
)

// Attendee はイベント出席登録エンティティを表す
// (user, event)の組で一意。キャンセル後の再登録は同じ行を
// registeredに戻す（新規行は作らない）
type Attendee struct {
	ID        string
	EventID   string
	UserID    string
	Status    AttendeeStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAttendee は新しい出席登録を作成する
func NewAttendee(eventID, userID string) *Attendee {
	now := time.Now()
	return &Attendee{
		EventID:   eventID,
		UserID:    userID,
		Status:    AttendeeRegistered,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsCounted は定員に計上される状態（registered/confirmed）かを返す
func (a *Attendee) IsCounted() bool {
	return a.Status == AttendeeRegistered || a.Status == AttendeeConfirmed
}

// Reactivate はキャンセル済みの登録を再有効化する
func (a *Attendee) Reactivate() error {
	if a.Status != AttendeeCancelled {
		return ErrAlreadyRegistered
	}
	a.Status = AttendeeRegistered
	a.UpdatedAt = time.Now()
	return nil
}

// Cancel は出席登録をキャンセルする
func (a *Attendee) Cancel() error {
	if a.Status == AttendeeCancelled {
		return ErrRegistrationAlreadyCancelled
	}
	a.Status = AttendeeCancelled
	a.UpdatedAt = time.Now()
	return nil
}

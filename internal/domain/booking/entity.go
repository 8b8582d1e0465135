package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// 参加人数の上限（1予約あたり）
const (
	MinParticipants = 1
	MaxParticipants = 20
)

// ContactInfo は予約の連絡先情報
type ContactInfo struct {
	Name  string
	Email string
	Phone string
}

// Booking は予約エンティティを表す
// キャンセルは状態遷移であり、レコードは物理削除しない
type Booking struct {
	ID              string
	UserID          string
	ExperienceID    string
	SessionID       *string
	Participants    int
	TotalPrice      int // 作成時に単価×人数で確定（人数変更後も再計算しない）
	Status          Status
	ContactInfo     ContactInfo
	SpecialRequests string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewBooking は新しい予約を作成する（初期状態はpending）
func NewBooking(userID, experienceID string, sessionID *string, participants, unitPrice int, contact ContactInfo, specialRequests string) *Booking {
	now := time.Now()
	return &Booking{
		UserID:          userID,
		ExperienceID:    experienceID,
		SessionID:       sessionID,
		Participants:    participants,
		TotalPrice:      unitPrice * participants,
		Status:          StatusPending,
		ContactInfo:     contact,
		SpecialRequests: specialRequests,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsActive は定員カウンタに計上される状態（pending/confirmed）かを返す
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// HasSession はセッション枠を保持しているかを返す
func (b *Booking) HasSession() bool {
	return b.SessionID != nil && *b.SessionID != ""
}

// CanTransitionTo は指定状態への遷移が許されるかを返す
// pending → confirmed → completed、pending/confirmed → cancelled のみ
func (b *Booking) CanTransitionTo(next Status) bool {
	switch b.Status {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	default:
		// completed / cancelled は終端状態
		return false
	}
}

// Confirm は予約を確定する
func (b *Booking) Confirm() error {
	if b.Status == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	if !b.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidStatusTransition
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = time.Now()
	return nil
}

// Complete は予約を完了状態にする
func (b *Booking) Complete() error {
	if !b.CanTransitionTo(StatusCompleted) {
		return ErrInvalidStatusTransition
	}
	b.Status = StatusCompleted
	b.UpdatedAt = time.Now()
	return nil
}

// Cancel は予約をキャンセルする
func (b *Booking) Cancel() error {
	if b.Status == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	if !b.CanTransitionTo(StatusCancelled) {
		return ErrInvalidStatusTransition
	}
	b.Status = StatusCancelled
	b.UpdatedAt = time.Now()
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.ExperienceID == "" {
		return ErrExperienceIDRequired
	}
	if b.Participants < MinParticipants || b.Participants > MaxParticipants {
		return ErrInvalidParticipants
	}
	if b.ContactInfo.Name == "" || b.ContactInfo.Email == "" {
		return ErrContactInfoRequired
	}
	return nil
}

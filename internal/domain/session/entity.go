package session

import "time"

// Session は体験の開催枠エンティティを表す
// 定員（MaxCapacity）がnilの場合は無制限
type Session struct {
	ID            string
	ExperienceID  string
	StartTime     time.Time
	EndTime       *time.Time
	MaxCapacity   *int
	CurrentCount  int
	Active        bool
	PriceOverride *int // セッション個別価格（nilなら体験の基本価格）
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewSession は新しい開催枠を作成する（予約数は0から開始）
func NewSession(experienceID string, startTime time.Time, endTime *time.Time, maxCapacity, priceOverride *int) *Session {
	now := time.Now()
	return &Session{
		ExperienceID:  experienceID,
		StartTime:     startTime,
		EndTime:       endTime,
		MaxCapacity:   maxCapacity,
		CurrentCount:  0,
		Active:        true,
		PriceOverride: priceOverride,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate は開催枠の検証を行う
func (s *Session) Validate() error {
	if s.ExperienceID == "" {
		return ErrExperienceIDRequired
	}
	if s.StartTime.IsZero() {
		return ErrStartTimeRequired
	}
	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		return ErrInvalidSessionTime
	}
	if s.MaxCapacity != nil && *s.MaxCapacity <= 0 {
		return ErrInvalidMaxCapacity
	}
	if s.PriceOverride != nil && *s.PriceOverride < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// UnitPrice は1人あたりの価格を返す（個別価格があれば優先）
func (s *Session) UnitPrice(basePrice int) int {
	if s.PriceOverride != nil {
		return *s.PriceOverride
	}
	return basePrice
}

// CanAccommodate は追加でn人を受け入れられるかを返す
func (s *Session) CanAccommodate(n int) bool {
	if !s.Active {
		return false
	}
	if s.MaxCapacity == nil {
		return true
	}
	return s.CurrentCount+n <= *s.MaxCapacity
}

// Remaining は残り枠数を返す（無制限の場合は-1）
func (s *Session) Remaining() int {
	if s.MaxCapacity == nil {
		return -1
	}
	r := *s.MaxCapacity - s.CurrentCount
	if r < 0 {
		return 0
	}
	return r
}

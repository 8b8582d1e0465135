package experience

import "time"

// Experience は体験（テマスカル、瞑想リトリート等）エンティティを表す
type Experience struct {
	ID            string
	FacilitatorID string
	Name          string
	Description   string
	Category      string
	Price         int // 基本価格（MXNセント単位）
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewExperience は新しい体験を作成する
func NewExperience(facilitatorID, name, description, category string, price int) *Experience {
	now := time.Now()
	return &Experience{
		FacilitatorID: facilitatorID,
		Name:          name,
		Description:   description,
		Category:      category,
		Price:         price,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate は体験の検証を行う
func (e *Experience) Validate() error {
	if e.FacilitatorID == "" {
		return ErrFacilitatorIDRequired
	}
	if e.Name == "" {
		return ErrExperienceNameRequired
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

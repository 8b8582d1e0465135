package review

import "time"

// Review は体験へのレビューエンティティを表す
// (user, experience)の組で一意
type Review struct {
	ID           string
	UserID       string
	ExperienceID string
	Rating       int // 1〜5
	Comment      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReview は新しいレビューを作成する
func NewReview(userID, experienceID string, rating int, comment string) *Review {
	now := time.Now()
	return &Review{
		UserID:       userID,
		ExperienceID: experienceID,
		Rating:       rating,
		Comment:      comment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate はレビューの検証を行う
func (r *Review) Validate() error {
	if r.UserID == "" {
		return ErrUserIDRequired
	}
	if r.ExperienceID == "" {
		return ErrExperienceIDRequired
	}
	if r.Rating < 1 || r.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

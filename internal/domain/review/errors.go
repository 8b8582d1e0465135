package review

import "errors"

// Review ドメインのエラー定義
var (
	ErrReviewNotFound       = errors.New("レビューが見つかりません")
	ErrDuplicateReview      = errors.New("この体験には既にレビュー済みです")
	ErrUserIDRequired       = errors.New("ユーザーIDは必須です")
	ErrExperienceIDRequired = errors.New("体験IDは必須です")
	ErrInvalidRating        = errors.New("評価は1〜5である必要があります")
)

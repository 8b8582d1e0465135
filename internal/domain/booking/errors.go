package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound         = errors.New("予約が見つかりません")
	ErrBookingAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrInvalidStatusTransition = errors.New("許可されていない状態遷移です")
	ErrUserIDRequired          = errors.New("ユーザーIDは必須です")
	ErrExperienceIDRequired    = errors.New("体験IDは必須です")
	ErrInvalidParticipants     = errors.New("参加人数は1〜20人である必要があります")
	ErrContactInfoRequired     = errors.New("連絡先（氏名・メールアドレス）は必須です")
)

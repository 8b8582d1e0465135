package session

import "errors"

// Session ドメインのエラー定義
var (
	ErrSessionNotFound      = errors.New("開催枠が見つかりません")
	ErrSessionNotActive     = errors.New("開催枠は受付停止中です")
	ErrCapacityExceeded     = errors.New("開催枠の定員を超えています")
	ErrCapacityBelowBooked  = errors.New("定員を現在の予約数より少なくできません")
	ErrExperienceIDRequired = errors.New("体験IDは必須です")
	ErrStartTimeRequired    = errors.New("開始時刻は必須です")
	ErrInvalidSessionTime   = errors.New("終了時刻は開始時刻より後である必要があります")
	ErrInvalidMaxCapacity   = errors.New("定員は1以上である必要があります")
	ErrInvalidPrice         = errors.New("価格は0以上である必要があります")
	ErrInvalidParticipants  = errors.New("人数は1以上である必要があります")
)

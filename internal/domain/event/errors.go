package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound                = errors.New("イベントが見つかりません")
	ErrEventNotOpen                 = errors.New("イベントは登録を受け付けていません")
	ErrEventCapacityExceeded        = errors.New("イベントの定員に達しています")
	ErrEventNameRequired            = errors.New("イベント名は必須です")
	ErrStartDateRequired            = errors.New("開催日は必須です")
	ErrInvalidMaxCapacity           = errors.New("定員は1以上である必要があります")
	ErrAlreadyRegistered            = errors.New("このイベントには既に登録済みです")
	ErrRegistrationNotFound         = errors.New("出席登録が見つかりません")
	ErrRegistrationAlreadyCancelled = errors.New("出席登録は既にキャンセルされています")
)

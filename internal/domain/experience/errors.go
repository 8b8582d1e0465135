package experience

import "errors"

// Experience ドメインのエラー定義
var (
	ErrExperienceNotFound     = errors.New("体験が見つかりません")
	ErrExperienceNotActive    = errors.New("体験は公開されていません")
	ErrExperienceNameRequired = errors.New("体験名は必須です")
	ErrFacilitatorIDRequired  = errors.New("ファシリテーターIDは必須です")
	ErrInvalidPrice           = errors.New("価格は0以上である必要があります")
)

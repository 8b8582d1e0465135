package authz

import (
	"errors"

	"github.com/davorint/amatlan-booking/internal/domain/user"
)

// ErrForbidden は認可チェックに失敗した場合のエラー
var ErrForbidden = errors.New("この操作を行う権限がありません")

// Actor はリクエスト主体（認証済みユーザー）を表す
type Actor struct {
	UserID string
	Role   user.Role
}

// Resource は認可対象リソースの所有情報を表す
// OwnerIDはリソースを作成したユーザー、FacilitatorIDは
// リソースが属する体験のファシリテーター（体験配下でない場合は空）
type Resource struct {
	OwnerID       string
	FacilitatorID string
}

// CanMutate はリソースへの変更操作が許されるかを返す
// 所有者本人、体験のファシリテーター、管理者のいずれかであれば許可
func CanMutate(a Actor, r Resource) bool {
	if a.Role == user.RoleAdmin {
		return true
	}
	if r.OwnerID != "" && a.UserID == r.OwnerID {
		return true
	}
	if r.FacilitatorID != "" && a.UserID == r.FacilitatorID {
		return true
	}
	return false
}

// Authorize はCanMutateの判定を行い、不許可ならErrForbiddenを返す
func Authorize(a Actor, r Resource) error {
	if !CanMutate(a, r) {
		return ErrForbidden
	}
	return nil
}

// RequireRole は指定のいずれかの役割を持つかを確認する
// （ファシリテーター専用操作など、所有者の概念がない場合に使う）
func RequireRole(a Actor, roles ...user.Role) error {
	for _, role := range roles {
		if a.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

package review

import "context"

// Repository はレビューリポジトリのインターフェース
type Repository interface {
	// Create は新しいレビューを作成する
	// (user, experience)の一意制約違反はErrDuplicateReviewとなる
	Create(ctx context.Context, r *Review) error

	// GetByID はIDからレビューを取得する
	GetByID(ctx context.Context, id string) (*Review, error)

	// ListByExperienceID は体験のレビュー一覧を取得する
	ListByExperienceID(ctx context.Context, experienceID string, limit, offset int) ([]*Review, error)
}

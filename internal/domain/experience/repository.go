package experience

import "context"

// Repository は体験リポジトリのインターフェース
type Repository interface {
	// Create は新しい体験を作成する
	Create(ctx context.Context, exp *Experience) error

	// GetByID はIDから体験を取得する
	GetByID(ctx context.Context, id string) (*Experience, error)

	// List は公開中の体験一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Experience, error)

	// ListByFacilitator はファシリテーターの体験一覧を取得する
	ListByFacilitator(ctx context.Context, facilitatorID string) ([]*Experience, error)

	// Update は体験を更新する
	Update(ctx context.Context, exp *Experience) error
}

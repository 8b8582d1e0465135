package booking

import (
	"context"

	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByUserID はユーザーの予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, b *Booking) error

	// MarkCancelled は予約を条件付きでキャンセル状態に更新する（トランザクション必須）
	// 既にキャンセル済みの場合はfalseを返し、何も変更しない
	// 枠の解放を正確に1回にするためのガード
	MarkCancelled(ctx context.Context, tx transaction.Tx, id string) (bool, error)
}

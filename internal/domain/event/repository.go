package event

import (
	"context"

	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, e *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// GetByIDForUpdate はイベント行をロックして取得する（トランザクション必須）
	// 定員チェックと登録を同一トランザクションで直列化するために使う
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Event, error)

	// List はイベント一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Event, error)

	// Update はイベントを更新する
	Update(ctx context.Context, e *Event) error
}

// AttendeeRepository は出席登録リポジトリのインターフェース
type AttendeeRepository interface {
	// Create は新しい出席登録を作成する（トランザクション必須）
	// (user, event)の一意制約違反はErrAlreadyRegisteredとなる
	Create(ctx context.Context, tx transaction.Tx, a *Attendee) error

	// GetByEventAndUser はイベントとユーザーから出席登録を取得する
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Attendee, error)

	// ListByEventID はイベントの出席登録一覧を取得する
	ListByEventID(ctx context.Context, eventID string) ([]*Attendee, error)

	// CountActive は定員に計上される出席者数を返す（トランザクション内で使用可）
	CountActive(ctx context.Context, tx transaction.Tx, eventID string) (int, error)

	// Update は出席登録の状態を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, a *Attendee) error

	// MarkCancelled は出席登録を条件付きでキャンセル状態に更新する
	// 既にキャンセル済みの場合はfalseを返す
	MarkCancelled(ctx context.Context, tx transaction.Tx, eventID, userID string) (bool, error)
}

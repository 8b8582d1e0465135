package session

import (
	"context"

	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

// Repository は開催枠リポジトリのインターフェース
// 定員カウンタの増減は必ずReserve/Release/Adjustを経由する
// （読み取り後の書き込みではなく条件付きUPDATE一発で行う）
type Repository interface {
	// Create は新しい開催枠を作成する
	Create(ctx context.Context, s *Session) error

	// GetByID はIDから開催枠を取得する
	GetByID(ctx context.Context, id string) (*Session, error)

	// ListByExperienceID は体験の開催枠一覧を取得する
	ListByExperienceID(ctx context.Context, experienceID string) ([]*Session, error)

	// Update は開催枠の属性を更新する（定員カウンタは対象外）
	// 定員を現在の予約数未満に減らす更新は失敗する
	Update(ctx context.Context, s *Session) error

	// Reserve は予約数をparticipants分増やす（トランザクション必須）
	// 定員超過となる場合はErrCapacityExceededを返し、カウンタは変化しない
	Reserve(ctx context.Context, tx transaction.Tx, id string, participants int) error

	// Release は予約数をparticipants分減らす（トランザクション必須）
	// カウンタは0未満にはならない
	Release(ctx context.Context, tx transaction.Tx, id string, participants int) error

	// Adjust は予約数をdelta分増減する（トランザクション必須）
	// 正のdeltaはReserveと同じ定員チェックを受ける
	Adjust(ctx context.Context, tx transaction.Tx, id string, delta int) error

	// Recount は有効な予約の人数合計からカウンタを再計算する
	// 修正前後で値が変わった場合はtrueを返す
	Recount(ctx context.Context, id string) (bool, error)

	// ListActiveIDs は受付中の開催枠ID一覧を取得する
	ListActiveIDs(ctx context.Context) ([]string, error)
}

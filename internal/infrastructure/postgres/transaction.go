package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

// sqlxTx は sqlx.Tx を transaction.Tx インターフェースに適合させる
type sqlxTx struct {
	tx *sqlx.Tx
}

func (t *sqlxTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqlxTx) Rollback() error {
	return t.tx.Rollback()
}

// TxManager は sqlx.DB を使用したトランザクションマネージャー
type TxManager struct {
	db *sqlx.DB
}

// NewTxManager は新しい TxManager を作成する
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin は新しいトランザクションを開始する
func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlxTx{tx: tx}, nil
}

// UnwrapTx は transaction.Tx から sqlx.Tx を取り出す
// トランザクション必須のリポジトリ操作で使用する
func UnwrapTx(tx transaction.Tx) *sqlx.Tx {
	if t, ok := tx.(*sqlxTx); ok {
		return t.tx
	}
	return nil
}

var (
	_ transaction.Manager = (*TxManager)(nil)
	_ transaction.Tx      = (*sqlxTx)(nil)
)

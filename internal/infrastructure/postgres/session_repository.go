package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/davorint/amatlan-booking/internal/domain/session"
	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

type sessionRow struct {
	ID            string     `db:"id"`
	ExperienceID  string     `db:"experience_id"`
	StartTime     time.Time  `db:"start_time"`
	EndTime       *time.Time `db:"end_time"`
	MaxCapacity   *int       `db:"max_capacity"`
	CurrentCount  int        `db:"current_count"`
	Active        bool       `db:"active"`
	PriceOverride *int       `db:"price_override"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *sessionRow) toEntity() *session.Session {
	return &session.Session{
		ID: r.ID, ExperienceID: r.ExperienceID,
		StartTime: r.StartTime, EndTime: r.EndTime,
		MaxCapacity: r.MaxCapacity, CurrentCount: r.CurrentCount,
		Active: r.Active, PriceOverride: r.PriceOverride,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const sessionColumns = `id, experience_id, start_time, end_time, max_capacity, current_count, active, price_override, created_at, updated_at`

// SessionRepository は開催枠リポジトリのPostgreSQL実装
// 定員カウンタの増減はすべて条件付きUPDATE一発で行い、
// 読み取り後書き込みの競合を排除する
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository はSessionRepositoryを作成する
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create は新しい開催枠を作成する
func (r *SessionRepository) Create(ctx context.Context, s *session.Session) error {
	query := `
		INSERT INTO experience_sessions (experience_id, start_time, end_time, max_capacity, current_count, active, price_override, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ExperienceID, s.StartTime, s.EndTime, s.MaxCapacity, s.CurrentCount, s.Active, s.PriceOverride, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("開催枠作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから開催枠を取得する
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Session, error) {
	var row sessionRow
	query := `SELECT ` + sessionColumns + ` FROM experience_sessions WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("開催枠取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListByExperienceID は体験の開催枠一覧を取得する
func (r *SessionRepository) ListByExperienceID(ctx context.Context, experienceID string) ([]*session.Session, error) {
	var rows []sessionRow
	query := `SELECT ` + sessionColumns + ` FROM experience_sessions WHERE experience_id = $1 ORDER BY start_time`
	if err := r.db.SelectContext(ctx, &rows, query, experienceID); err != nil {
		return nil, fmt.Errorf("開催枠一覧取得に失敗しました: %w", err)
	}
	sessions := make([]*session.Session, len(rows))
	for i, row := range rows {
		sessions[i] = row.toEntity()
	}
	return sessions, nil
}

// Update は開催枠の属性を更新する
// 定員を現在の予約数未満に減らす更新は拒否する
func (r *SessionRepository) Update(ctx context.Context, s *session.Session) error {
	query := `
		UPDATE experience_sessions
		SET start_time = $1, end_time = $2, max_capacity = $3, active = $4, price_override = $5, updated_at = $6
		WHERE id = $7 AND ($3::int IS NULL OR $3 >= current_count)
	`
	result, err := r.db.ExecContext(ctx, query,
		s.StartTime, s.EndTime, s.MaxCapacity, s.Active, s.PriceOverride, time.Now(), s.ID,
	)
	if err != nil {
		return fmt.Errorf("開催枠更新に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rows == 0 {
		// 行が存在するのに更新できなかった場合は定員削減の拒否
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
		return session.ErrCapacityBelowBooked
	}
	return nil
}

// Reserve は予約数をparticipants分増やす
// 定員チェックと加算を1文のUPDATEで行うため、並行予約が
// 同時にチェックを通過して定員を突破することはない
func (r *SessionRepository) Reserve(ctx context.Context, tx transaction.Tx, id string, participants int) error {
	if participants <= 0 {
		return session.ErrInvalidParticipants
	}
	query := `
		UPDATE experience_sessions
		SET current_count = current_count + $2, updated_at = NOW()
		WHERE id = $1 AND active = TRUE
		  AND (max_capacity IS NULL OR current_count + $2 <= max_capacity)
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, id, participants)
	if err != nil {
		return fmt.Errorf("枠の確保に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return r.classifyReserveFailure(ctx, id)
	}
	return nil
}

// classifyReserveFailure は条件付きUPDATEが空振りした理由を判別する
func (r *SessionRepository) classifyReserveFailure(ctx context.Context, id string) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.Active {
		return session.ErrSessionNotActive
	}
	return session.ErrCapacityExceeded
}

// Release は予約数をparticipants分減らす（0未満にはしない）
func (r *SessionRepository) Release(ctx context.Context, tx transaction.Tx, id string, participants int) error {
	if participants <= 0 {
		return session.ErrInvalidParticipants
	}
	query := `
		UPDATE experience_sessions
		SET current_count = GREATEST(current_count - $2, 0), updated_at = NOW()
		WHERE id = $1
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, id, participants)
	if err != nil {
		return fmt.Errorf("枠の解放に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

// Adjust は予約数をdelta分増減する
// 増加はReserveと同じ定員チェックを受ける
func (r *SessionRepository) Adjust(ctx context.Context, tx transaction.Tx, id string, delta int) error {
	switch {
	case delta > 0:
		return r.Reserve(ctx, tx, id, delta)
	case delta < 0:
		return r.Release(ctx, tx, id, -delta)
	default:
		return nil
	}
}

// Recount は有効な予約の人数合計からカウンタを再計算する
// ドリフトがあった場合のみ行を更新し、trueを返す
func (r *SessionRepository) Recount(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE experience_sessions s
		SET current_count = sub.total, updated_at = NOW()
		FROM (
			SELECT COALESCE(SUM(b.participants), 0) AS total
			FROM bookings b
			WHERE b.session_id = $1 AND b.status IN ('pending', 'confirmed')
		) sub
		WHERE s.id = $1 AND s.current_count <> sub.total
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("カウンタ再計算に失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("再計算結果の確認に失敗しました: %w", err)
	}
	return rows > 0, nil
}

// ListActiveIDs は受付中の開催枠ID一覧を取得する
func (r *SessionRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM experience_sessions WHERE active = TRUE`); err != nil {
		return nil, fmt.Errorf("開催枠ID一覧取得に失敗しました: %w", err)
	}
	return ids, nil
}

// インターフェースを満たしているか確認
var _ session.Repository = (*SessionRepository)(nil)

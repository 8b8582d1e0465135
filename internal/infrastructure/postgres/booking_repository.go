package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	ExperienceID    string    `db:"experience_id"`
	SessionID       *string   `db:"session_id"`
	Participants    int       `db:"participants"`
	TotalPrice      int       `db:"total_price"`
	Status          string    `db:"status"`
	ContactName     string    `db:"contact_name"`
	ContactEmail    string    `db:"contact_email"`
	ContactPhone    string    `db:"contact_phone"`
	SpecialRequests string    `db:"special_requests"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	return &booking.Booking{
		ID: r.ID, UserID: r.UserID, ExperienceID: r.ExperienceID,
		SessionID: r.SessionID, Participants: r.Participants,
		TotalPrice: r.TotalPrice, Status: booking.Status(r.Status),
		ContactInfo: booking.ContactInfo{
			Name: r.ContactName, Email: r.ContactEmail, Phone: r.ContactPhone,
		},
		SpecialRequests: r.SpecialRequests,
		CreatedAt:       r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const bookingColumns = `id, user_id, experience_id, session_id, participants, total_price, status, contact_name, contact_email, contact_phone, special_requests, created_at, updated_at`

// BookingRepository は予約リポジトリのPostgreSQL実装
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は新しい予約を作成する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `
		INSERT INTO bookings (user_id, experience_id, session_id, participants, total_price, status, contact_name, contact_email, contact_phone, special_requests, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := UnwrapTx(tx).QueryRowContext(ctx, query,
		b.UserID, b.ExperienceID, b.SessionID, b.Participants, b.TotalPrice, string(b.Status),
		b.ContactInfo.Name, b.ContactInfo.Email, b.ContactInfo.Phone, b.SpecialRequests,
		b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByUserID はユーザーの予約一覧を取得する
func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}
	bookings := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		bookings[i] = row.toEntity()
	}
	return bookings, nil
}

// Update は予約を更新する
func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `
		UPDATE bookings
		SET participants = $1, status = $2, contact_name = $3, contact_email = $4, contact_phone = $5, special_requests = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query,
		b.Participants, string(b.Status),
		b.ContactInfo.Name, b.ContactInfo.Email, b.ContactInfo.Phone, b.SpecialRequests,
		b.UpdatedAt, b.ID,
	)
	if err != nil {
		return fmt.Errorf("予約更新に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// MarkCancelled は予約を条件付きでキャンセル状態に更新する
// 「キャンセル済みでない場合のみ」を1文で判定するため、
// 並行する二重キャンセルのどちらか一方だけがtrueを得る
func (r *BookingRepository) MarkCancelled(ctx context.Context, tx transaction.Tx, id string) (bool, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status <> 'cancelled'
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("予約キャンセルに失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("キャンセル結果の確認に失敗しました: %w", err)
	}
	return rows > 0, nil
}

// インターフェースを満たしているか確認
var _ booking.Repository = (*BookingRepository)(nil)

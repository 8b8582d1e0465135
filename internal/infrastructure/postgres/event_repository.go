package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/davorint/amatlan-booking/internal/domain/event"
	"github.com/davorint/amatlan-booking/internal/domain/transaction"
)

type eventRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	Location    *string   `db:"location"`
	StartDate   time.Time `db:"start_date"`
	MaxCapacity *int      `db:"max_capacity"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *eventRow) toEntity() *event.Event {
	var desc, loc string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.Location != nil {
		loc = *r.Location
	}
	return &event.Event{
		ID: r.ID, Name: r.Name, Description: desc, Location: loc,
		StartDate: r.StartDate, MaxCapacity: r.MaxCapacity, Active: r.Active,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const eventColumns = `id, name, description, location, start_date, max_capacity, active, created_at, updated_at`

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (name, description, location, start_date, max_capacity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var desc, loc *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.Location != "" {
		loc = &e.Location
	}
	err := r.db.QueryRowContext(ctx, query,
		e.Name, desc, loc, e.StartDate, e.MaxCapacity, e.Active, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	var row eventRow
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// GetByIDForUpdate はイベント行をロックして取得する
// 定員チェックと出席登録を同一トランザクションで直列化するために使う
func (r *EventRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	var row eventRow
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	if err := UnwrapTx(tx).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List はイベント一覧を取得する
func (r *EventRepository) List(ctx context.Context, limit, offset int) ([]*event.Event, error) {
	var rows []eventRow
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}
	events := make([]*event.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toEntity()
	}
	return events, nil
}

// Update はイベントを更新する
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	query := `
		UPDATE events
		SET name = $1, description = $2, location = $3, start_date = $4, max_capacity = $5, active = $6, updated_at = $7
		WHERE id = $8
	`
	var desc, loc *string
	if e.Description != "" {
		desc = &e.Description
	}
	if e.Location != "" {
		loc = &e.Location
	}
	result, err := r.db.ExecContext(ctx, query,
		e.Name, desc, loc, e.StartDate, e.MaxCapacity, e.Active, time.Now(), e.ID,
	)
	if err != nil {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

type attendeeRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	UserID    string    `db:"user_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *attendeeRow) toEntity() *event.Attendee {
	return &event.Attendee{
		ID: r.ID, EventID: r.EventID, UserID: r.UserID,
		Status: event.AttendeeStatus(r.Status),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// AttendeeRepository は出席登録リポジトリのPostgreSQL実装
type AttendeeRepository struct {
	db *sqlx.DB
}

// NewAttendeeRepository はAttendeeRepositoryを作成する
func NewAttendeeRepository(db *sqlx.DB) *AttendeeRepository {
	return &AttendeeRepository{db: db}
}

// Create は新しい出席登録を作成する
func (r *AttendeeRepository) Create(ctx context.Context, tx transaction.Tx, a *event.Attendee) error {
	query := `
		INSERT INTO event_attendees (event_id, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := UnwrapTx(tx).QueryRowContext(ctx, query,
		a.EventID, a.UserID, string(a.Status), a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return event.ErrAlreadyRegistered
		}
		return fmt.Errorf("出席登録に失敗しました: %w", err)
	}
	return nil
}

// GetByEventAndUser はイベントとユーザーから出席登録を取得する
func (r *AttendeeRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*event.Attendee, error) {
	var row attendeeRow
	query := `SELECT id, event_id, user_id, status, created_at, updated_at FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &row, query, eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("出席登録取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListByEventID はイベントの出席登録一覧を取得する
func (r *AttendeeRepository) ListByEventID(ctx context.Context, eventID string) ([]*event.Attendee, error) {
	var rows []attendeeRow
	query := `SELECT id, event_id, user_id, status, created_at, updated_at FROM event_attendees WHERE event_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("出席登録一覧取得に失敗しました: %w", err)
	}
	attendees := make([]*event.Attendee, len(rows))
	for i, row := range rows {
		attendees[i] = row.toEntity()
	}
	return attendees, nil
}

// CountActive は定員に計上される出席者数を返す
// トランザクションが渡された場合はその中でカウントする
func (r *AttendeeRepository) CountActive(ctx context.Context, tx transaction.Tx, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM event_attendees WHERE event_id = $1 AND status IN ('registered', 'confirmed')`
	var count int
	var err error
	if tx != nil {
		err = UnwrapTx(tx).GetContext(ctx, &count, query, eventID)
	} else {
		err = r.db.GetContext(ctx, &count, query, eventID)
	}
	if err != nil {
		return 0, fmt.Errorf("出席者数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Update は出席登録の状態を更新する
func (r *AttendeeRepository) Update(ctx context.Context, tx transaction.Tx, a *event.Attendee) error {
	query := `UPDATE event_attendees SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, string(a.Status), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("出席登録更新に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return event.ErrRegistrationNotFound
	}
	return nil
}

// MarkCancelled は出席登録を条件付きでキャンセル状態に更新する
// 既にキャンセル済みの場合はfalseを返す
func (r *AttendeeRepository) MarkCancelled(ctx context.Context, tx transaction.Tx, eventID, userID string) (bool, error) {
	query := `
		UPDATE event_attendees
		SET status = 'cancelled', updated_at = NOW()
		WHERE event_id = $1 AND user_id = $2 AND status <> 'cancelled'
	`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, fmt.Errorf("出席登録キャンセルに失敗しました: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("キャンセル結果の確認に失敗しました: %w", err)
	}
	return rows > 0, nil
}

// インターフェースを満たしているか確認
var (
	_ event.Repository         = (*EventRepository)(nil)
	_ event.AttendeeRepository = (*AttendeeRepository)(nil)
)

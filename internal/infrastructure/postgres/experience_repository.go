package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/davorint/amatlan-booking/internal/domain/experience"
)

type experienceRow struct {
	ID            string    `db:"id"`
	FacilitatorID string    `db:"facilitator_id"`
	Name          string    `db:"name"`
	Description   *string   `db:"description"`
	Category      *string   `db:"category"`
	Price         int       `db:"price"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *experienceRow) toEntity() *experience.Experience {
	var desc, cat string
	if r.Description != nil {
		desc = *r.Description
	}
	if r.Category != nil {
		cat = *r.Category
	}
	return &experience.Experience{
		ID: r.ID, FacilitatorID: r.FacilitatorID, Name: r.Name,
		Description: desc, Category: cat, Price: r.Price, Active: r.Active,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

const experienceColumns = `id, facilitator_id, name, description, category, price, active, created_at, updated_at`

// ExperienceRepository は体験リポジトリのPostgreSQL実装
type ExperienceRepository struct {
	db *sqlx.DB
}

// NewExperienceRepository はExperienceRepositoryを作成する
func NewExperienceRepository(db *sqlx.DB) *ExperienceRepository {
	return &ExperienceRepository{db: db}
}

// Create は新しい体験を作成する
func (r *ExperienceRepository) Create(ctx context.Context, exp *experience.Experience) error {
	query := `
		INSERT INTO experiences (facilitator_id, name, description, category, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var desc, cat *string
	if exp.Description != "" {
		desc = &exp.Description
	}
	if exp.Category != "" {
		cat = &exp.Category
	}
	err := r.db.QueryRowContext(ctx, query,
		exp.FacilitatorID, exp.Name, desc, cat, exp.Price, exp.Active, exp.CreatedAt, exp.UpdatedAt,
	).Scan(&exp.ID)
	if err != nil {
		return fmt.Errorf("体験作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDから体験を取得する
func (r *ExperienceRepository) GetByID(ctx context.Context, id string) (*experience.Experience, error) {
	var row experienceRow
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, experience.ErrExperienceNotFound
		}
		return nil, fmt.Errorf("体験取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は公開中の体験一覧を取得する
func (r *ExperienceRepository) List(ctx context.Context, limit, offset int) ([]*experience.Experience, error) {
	var rows []experienceRow
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE active = TRUE ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("体験一覧取得に失敗しました: %w", err)
	}
	experiences := make([]*experience.Experience, len(rows))
	for i, row := range rows {
		experiences[i] = row.toEntity()
	}
	return experiences, nil
}

// ListByFacilitator はファシリテーターの体験一覧を取得する
func (r *ExperienceRepository) ListByFacilitator(ctx context.Context, facilitatorID string) ([]*experience.Experience, error) {
	var rows []experienceRow
	query := `SELECT ` + experienceColumns + ` FROM experiences WHERE facilitator_id = $1 ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, facilitatorID); err != nil {
		return nil, fmt.Errorf("体験一覧取得に失敗しました: %w", err)
	}
	experiences := make([]*experience.Experience, len(rows))
	for i, row := range rows {
		experiences[i] = row.toEntity()
	}
	return experiences, nil
}

// Update は体験を更新する
func (r *ExperienceRepository) Update(ctx context.Context, exp *experience.Experience) error {
	query := `
		UPDATE experiences
		SET name = $1, description = $2, category = $3, price = $4, active = $5, updated_at = $6
		WHERE id = $7
	`
	var desc, cat *string
	if exp.Description != "" {
		desc = &exp.Description
	}
	if exp.Category != "" {
		cat = &exp.Category
	}
	result, err := r.db.ExecContext(ctx, query,
		exp.Name, desc, cat, exp.Price, exp.Active, time.Now(), exp.ID,
	)
	if err != nil {
		return fmt.Errorf("体験更新に失敗しました: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return experience.ErrExperienceNotFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ experience.Repository = (*ExperienceRepository)(nil)

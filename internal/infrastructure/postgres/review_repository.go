package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/davorint/amatlan-booking/internal/domain/review"
)

type reviewRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	ExperienceID string    `db:"experience_id"`
	Rating       int       `db:"rating"`
	Comment      *string   `db:"comment"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r *reviewRow) toEntity() *review.Review {
	var comment string
	if r.Comment != nil {
		comment = *r.Comment
	}
	return &review.Review{
		ID: r.ID, UserID: r.UserID, ExperienceID: r.ExperienceID,
		Rating: r.Rating, Comment: comment,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// ReviewRepository はレビューリポジトリのPostgreSQL実装
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository はReviewRepositoryを作成する
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create は新しいレビューを作成する
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	query := `
		INSERT INTO reviews (user_id, experience_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var comment *string
	if rv.Comment != "" {
		comment = &rv.Comment
	}
	err := r.db.QueryRowContext(ctx, query,
		rv.UserID, rv.ExperienceID, rv.Rating, comment, rv.CreatedAt, rv.UpdatedAt,
	).Scan(&rv.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return review.ErrDuplicateReview
		}
		return fmt.Errorf("レビュー作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからレビューを取得する
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*review.Review, error) {
	var row reviewRow
	query := `SELECT id, user_id, experience_id, rating, comment, created_at, updated_at FROM reviews WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, review.ErrReviewNotFound
		}
		return nil, fmt.Errorf("レビュー取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListByExperienceID は体験のレビュー一覧を取得する
func (r *ReviewRepository) ListByExperienceID(ctx context.Context, experienceID string, limit, offset int) ([]*review.Review, error) {
	var rows []reviewRow
	query := `SELECT id, user_id, experience_id, rating, comment, created_at, updated_at FROM reviews WHERE experience_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, experienceID, limit, offset); err != nil {
		return nil, fmt.Errorf("レビュー一覧取得に失敗しました: %w", err)
	}
	reviews := make([]*review.Review, len(rows))
	for i, row := range rows {
		reviews[i] = row.toEntity()
	}
	return reviews, nil
}

// インターフェースを満たしているか確認
var _ review.Repository = (*ReviewRepository)(nil)

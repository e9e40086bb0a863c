package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/consulting-service/internal/domain"
)

// FeedbackRepository persists client ratings.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *domain.Feedback) error
	List(ctx context.Context, userID *string, limit, offset int) ([]domain.Feedback, error)
	Delete(ctx context.Context, id string) error
	AverageRating(ctx context.Context) (float64, int, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository constructs repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

func (r *feedbackRepository) Create(ctx context.Context, f *domain.Feedback) error {
	const query = `
        INSERT INTO feedback (user_id, order_id, rating, comment)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, f.UserID, f.OrderID, f.Rating, f.Comment).Scan(&f.ID, &f.CreatedAt)
}

func (r *feedbackRepository) List(ctx context.Context, userID *string, limit, offset int) ([]domain.Feedback, error) {
	limit, offset = normalizePage(limit, offset)
	query := fmt.Sprintf(`
        SELECT id, user_id, order_id, rating, comment, created_at
        FROM feedback WHERE ($1::uuid IS NULL OR user_id=$1::uuid)
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.OrderID, &f.Rating, &f.Comment, &f.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, rows.Err()
}

func (r *feedbackRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM feedback WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AverageRating returns the mean rating and the number of ratings.
func (r *feedbackRepository) AverageRating(ctx context.Context) (float64, int, error) {
	var avg float64
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*) FROM feedback`).Scan(&avg, &n)
	return avg, n, err
}

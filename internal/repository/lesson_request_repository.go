package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

type LessonRequestRepository struct {
	pool *pgxpool.Pool
}

func NewLessonRequestRepository(pool *pgxpool.Pool) *LessonRequestRepository {
	return &LessonRequestRepository{pool: pool}
}

// Create persists a new lesson request. Requests are immutable after
// this point.
func (r *LessonRequestRepository) Create(ctx context.Context, req *model.LessonRequest) error {
	query := `
		INSERT INTO lesson_requests (student_id, lesson_type, start_at, duration_minutes, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		req.StudentID,
		req.LessonType,
		req.StartAt,
		req.DurationMinutes,
		req.Address,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		return fmt.Errorf("create lesson request: %w", err)
	}

	return nil
}

// GetByID returns the request or nil when it does not exist.
func (r *LessonRequestRepository) GetByID(ctx context.Context, id int64) (*model.LessonRequest, error) {
	query := `
		SELECT id, student_id, lesson_type, start_at, duration_minutes, address, created_at
		FROM lesson_requests
		WHERE id = $1
	`

	var req model.LessonRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.StudentID,
		&req.LessonType,
		&req.StartAt,
		&req.DurationMinutes,
		&req.Address,
		&req.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson request by id: %w", err)
	}

	return &req, nil
}

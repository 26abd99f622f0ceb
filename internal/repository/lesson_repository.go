package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

type LessonRepository struct {
	pool *pgxpool.Pool
}

func NewLessonRepository(pool *pgxpool.Pool) *LessonRepository {
	return &LessonRepository{pool: pool}
}

// Create inserts the lesson through the caller's querier. The UNIQUE
// constraint on quote_id is the real guard for one-lesson-per-quote:
// a duplicate insert fails the whole transaction with a conflict, no
// matter what the application checked beforehand.
func (r *LessonRepository) Create(ctx context.Context, q base.Querier, lesson *model.Lesson) error {
	query := `
		INSERT INTO lessons (quote_id)
		VALUES ($1)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query, lesson.QuoteID).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}

	return nil
}

// GetByID returns the lesson with its current status, or nil when it
// does not exist.
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*model.Lesson, error) {
	query := `
		SELECT l.id, l.quote_id, l.current_status_id, l.created_at, l.updated_at, COALESCE(s.status, '')
		FROM lessons l
		LEFT JOIN lesson_statuses s ON s.id = l.current_status_id
		WHERE l.id = $1
	`

	lesson, err := scanLesson(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by id: %w", err)
	}

	return lesson, nil
}

// LockByID reads the lesson and its current status in one locked read.
// Status update transactions must start here: whoever holds the row lock
// is the only one evaluating a transition against this lesson.
func (r *LessonRepository) LockByID(ctx context.Context, q base.Querier, id int64) (*model.Lesson, error) {
	query := `
		SELECT l.id, l.quote_id, l.current_status_id, l.created_at, l.updated_at, COALESCE(s.status, '')
		FROM lessons l
		LEFT JOIN lesson_statuses s ON s.id = l.current_status_id
		WHERE l.id = $1
		FOR UPDATE OF l
	`

	lesson, err := scanLesson(q.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock lesson by id: %w", err)
	}

	return lesson, nil
}

// GetByQuoteID returns the lesson referencing the quote, or nil. Read
// through the caller's querier so an accept transaction sees its own
// view of the table.
func (r *LessonRepository) GetByQuoteID(ctx context.Context, q base.Querier, quoteID int64) (*model.Lesson, error) {
	query := `
		SELECT l.id, l.quote_id, l.current_status_id, l.created_at, l.updated_at, COALESCE(s.status, '')
		FROM lessons l
		LEFT JOIN lesson_statuses s ON s.id = l.current_status_id
		WHERE l.quote_id = $1
	`

	lesson, err := scanLesson(q.QueryRow(ctx, query, quoteID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lesson by quote id: %w", err)
	}

	return lesson, nil
}

func scanLesson(row rowScanner) (*model.Lesson, error) {
	var lesson model.Lesson
	var status string
	err := row.Scan(
		&lesson.ID,
		&lesson.QuoteID,
		&lesson.CurrentStatusID,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
		&status,
	)
	if err != nil {
		return nil, err
	}
	lesson.Status = model.LessonState(status)
	return &lesson, nil
}

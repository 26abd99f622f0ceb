package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

const quoteColumns = `q.id, q.request_id, q.teacher_id, q.batch_id, q.cost, q.hourly_rate, q.current_status_id, q.created_at, q.updated_at`

type QuoteRepository struct {
	pool *pgxpool.Pool
}

func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool}
}

// Create inserts a new quote through the caller's querier so the insert
// lands in the same transaction as the quote's initial status record.
func (r *QuoteRepository) Create(ctx context.Context, q base.Querier, quote *model.LessonQuote) error {
	query := `
		INSERT INTO lesson_quotes (request_id, teacher_id, batch_id, cost, hourly_rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(
		ctx, query,
		quote.RequestID,
		quote.TeacherID,
		quote.BatchID,
		quote.Cost,
		quote.HourlyRate,
	).Scan(&quote.ID, &quote.CreatedAt, &quote.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create quote: %w", err)
	}

	return nil
}

// GetByID returns the quote with its current status, or nil when it does
// not exist.
func (r *QuoteRepository) GetByID(ctx context.Context, id int64) (*model.LessonQuote, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(s.status, '')
		FROM lesson_quotes q
		LEFT JOIN lesson_quote_statuses s ON s.id = q.current_status_id
		WHERE q.id = $1
	`, quoteColumns)

	quote, err := scanQuote(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quote by id: %w", err)
	}

	return quote, nil
}

// LockByID reads the quote together with its current status under a row
// lock, so a competing transaction cannot transition it concurrently.
// Returns nil when the quote does not exist.
func (r *QuoteRepository) LockByID(ctx context.Context, q base.Querier, id int64) (*model.LessonQuote, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(s.status, '')
		FROM lesson_quotes q
		LEFT JOIN lesson_quote_statuses s ON s.id = q.current_status_id
		WHERE q.id = $1
		FOR UPDATE OF q
	`, quoteColumns)

	quote, err := scanQuote(q.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock quote by id: %w", err)
	}

	return quote, nil
}

// LockByRequestID locks every quote of a request in id order and returns
// them with their current statuses. Locking the whole sibling set is what
// serializes two competing accepts on the same request.
func (r *QuoteRepository) LockByRequestID(ctx context.Context, q base.Querier, requestID int64) ([]*model.LessonQuote, error) {
	query := fmt.Sprintf(`
		SELECT %s, COALESCE(s.status, '')
		FROM lesson_quotes q
		LEFT JOIN lesson_quote_statuses s ON s.id = q.current_status_id
		WHERE q.request_id = $1
		ORDER BY q.id
		FOR UPDATE OF q
	`, quoteColumns)

	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("lock quotes by request: %w", err)
	}
	defer rows.Close()

	var quotes []*model.LessonQuote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}

// FindStaleCreated returns quotes still in created state whose request
// start time has already passed. Used by the expiry sweeper.
func (r *QuoteRepository) FindStaleCreated(ctx context.Context, cutoff time.Time) ([]*model.LessonQuote, error) {
	query := fmt.Sprintf(`
		SELECT %s, s.status
		FROM lesson_quotes q
		JOIN lesson_quote_statuses s ON s.id = q.current_status_id
		JOIN lesson_requests lr ON lr.id = q.request_id
		WHERE s.status = 'created'
		  AND lr.start_at < $1
		ORDER BY q.id
	`, quoteColumns)

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("find stale quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*model.LessonQuote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*model.LessonQuote, error) {
	var quote model.LessonQuote
	var status string
	err := row.Scan(
		&quote.ID,
		&quote.RequestID,
		&quote.TeacherID,
		&quote.BatchID,
		&quote.Cost,
		&quote.HourlyRate,
		&quote.CurrentStatusID,
		&quote.CreatedAt,
		&quote.UpdatedAt,
		&status,
	)
	if err != nil {
		return nil, err
	}
	quote.Status = model.QuoteState(status)
	return &quote, nil
}

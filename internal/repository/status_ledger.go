package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlane/marketplace/internal/apperr"
	"github.com/tutorlane/marketplace/internal/model"
	"github.com/tutorlane/marketplace/internal/repository/base"
)

// StatusLedger is the append-only status log for one entity kind.
// Records are immutable; the owning entity only ever re-points its
// current-status reference to the newest record. Both tables share the
// same shape, so the ledger is instantiated per kind with its table and
// column names instead of being written twice.
type StatusLedger struct {
	pool *pgxpool.Pool

	insertSQL  string
	repointSQL string
	pointerSQL string
	recordSQL  string
	historySQL string
}

func newStatusLedger(pool *pgxpool.Pool, recordTable, entityTable, fkColumn string) *StatusLedger {
	return &StatusLedger{
		pool: pool,
		insertSQL: fmt.Sprintf(`
			INSERT INTO %s (%s, status, context)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, recordTable, fkColumn),
		repointSQL: fmt.Sprintf(`
			UPDATE %s
			SET current_status_id = $1, updated_at = now()
			WHERE id = $2
		`, entityTable),
		pointerSQL: fmt.Sprintf(`
			SELECT current_status_id FROM %s WHERE id = $1
		`, entityTable),
		recordSQL: fmt.Sprintf(`
			SELECT id, %s, status, context, created_at
			FROM %s
			WHERE id = $1
		`, fkColumn, recordTable),
		historySQL: fmt.Sprintf(`
			SELECT id, %s, status, context, created_at
			FROM %s
			WHERE %s = $1
			ORDER BY id
		`, fkColumn, recordTable, fkColumn),
	}
}

// NewQuoteStatusLedger builds the ledger over lesson_quote_statuses.
func NewQuoteStatusLedger(pool *pgxpool.Pool) *StatusLedger {
	return newStatusLedger(pool, "lesson_quote_statuses", "lesson_quotes", "quote_id")
}

// NewLessonStatusLedger builds the ledger over lesson_statuses.
func NewLessonStatusLedger(pool *pgxpool.Pool) *StatusLedger {
	return newStatusLedger(pool, "lesson_statuses", "lessons", "lesson_id")
}

// Append inserts a new status record and re-points the owning entity's
// current-status reference to it. Both writes go through the caller's
// querier: they either commit together or roll back together.
func (l *StatusLedger) Append(ctx context.Context, q base.Querier, entityID int64, status string, kv map[string]string) (*model.StatusRecord, error) {
	if kv == nil {
		kv = map[string]string{}
	}

	rec := &model.StatusRecord{EntityID: entityID, Status: status, Context: kv}
	err := q.QueryRow(ctx, l.insertSQL, entityID, status, kv).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert status record: %w", err)
	}

	tag, err := q.Exec(ctx, l.repointSQL, rec.ID, entityID)
	if err != nil {
		return nil, fmt.Errorf("repoint current status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("repoint current status: entity %d not found", entityID)
	}

	return rec, nil
}

// Current dereferences the entity's current-status pointer. A missing
// entity is NotFound; a null or dangling pointer means a previous write
// skipped the ledger and is reported as InconsistentState, never papered
// over.
func (l *StatusLedger) Current(ctx context.Context, q base.Querier, entityID int64) (*model.StatusRecord, error) {
	var pointer *int64
	err := q.QueryRow(ctx, l.pointerSQL, entityID).Scan(&pointer)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, apperr.Newf(apperr.KindNotFound, "entity %d not found", entityID)
		}
		return nil, fmt.Errorf("read current status pointer: %w", err)
	}
	if pointer == nil {
		return nil, apperr.Newf(apperr.KindInconsistentState, "entity %d has no current status", entityID)
	}

	rec, err := l.scanRecord(q.QueryRow(ctx, l.recordSQL, *pointer))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, apperr.Newf(apperr.KindInconsistentState, "entity %d points at missing status record %d", entityID, *pointer)
		}
		return nil, fmt.Errorf("read current status record: %w", err)
	}

	return rec, nil
}

// History returns every status record for the entity in creation order.
func (l *StatusLedger) History(ctx context.Context, entityID int64) ([]*model.StatusRecord, error) {
	rows, err := l.pool.Query(ctx, l.historySQL, entityID)
	if err != nil {
		return nil, fmt.Errorf("read status history: %w", err)
	}
	defer rows.Close()

	var records []*model.StatusRecord
	for rows.Next() {
		rec, err := l.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan status record: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (l *StatusLedger) scanRecord(row rowScanner) (*model.StatusRecord, error) {
	var rec model.StatusRecord
	err := row.Scan(
		&rec.ID,
		&rec.EntityID,
		&rec.Status,
		&rec.Context,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

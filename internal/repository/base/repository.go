package base

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlane/marketplace/internal/apperr"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repository methods that must observe the caller's transaction take a
// Querier explicitly instead of reaching for their own pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// TxRunner runs a closure inside a single database transaction. Either
// every write in the closure commits or none of them is ever visible.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// DB returns the pool for reads that do not need a transaction.
func (t *TxRunner) DB() Querier {
	return t.pool
}

// InTx begins a transaction, runs fn against it and commits. Any error
// from fn or from the commit rolls the whole unit back. Storage-level
// conflicts are mapped onto the error taxonomy so callers can decide to
// retry.
func (t *TxRunner) InTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return translate(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translate(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// translate maps postgres error codes onto the taxonomy. Unique
// violations and serialization failures both surface as Conflict: the
// invariant held, the caller lost a race.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Wrap(apperr.KindConflict, "uniqueness violation", err)
		case "40001", "40P01":
			return apperr.Wrap(apperr.KindConflict, "serialization conflict", err)
		}
	}
	return err
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

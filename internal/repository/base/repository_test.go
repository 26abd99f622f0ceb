package base

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/tutorlane/marketplace/internal/apperr"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperr.KindConflict},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperr.KindConflict},
		{"deadlock detected", &pgconn.PgError{Code: "40P01"}, apperr.KindConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translate(fmt.Errorf("create lesson: %w", tc.err))
			assert.Equal(t, tc.kind, apperr.KindOf(got))
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestTranslate_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection refused")
	assert.Equal(t, plain, translate(plain))

	// Taxonomy errors produced inside the closure come back untouched.
	appErr := apperr.New(apperr.KindForbidden, "not yours")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(translate(appErr)))

	otherPg := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, apperr.Kind(0), apperr.KindOf(translate(otherPg)))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(fmt.Errorf("get quote: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(errors.New("boom")))
}

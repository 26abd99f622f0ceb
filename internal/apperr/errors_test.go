package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := Newf(KindConflict, "quote %d is already accepted", 7)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(err, KindNotFound))

	// Kind survives wrapping by callers.
	wrapped := fmt.Errorf("accept quote: %w", err)
	assert.Equal(t, KindConflict, KindOf(wrapped))

	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := Wrap(KindConflict, "uniqueness violation", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "conflict")
	assert.Contains(t, err.Error(), "uniqueness violation")
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindConflict, "serialization conflict")))
	assert.False(t, Retryable(New(KindInvalidTransition, "nope")))
	assert.False(t, Retryable(errors.New("plain")))
}

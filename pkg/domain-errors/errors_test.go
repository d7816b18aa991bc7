package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("finds codes anywhere in the chain", func(t *testing.T) {
		inner := New(CodeNotFound, "no schema")
		outer := Wrap(inner, CodeInternal, "load")
		wrapped := fmt.Errorf("handler: %w", outer)

		assert.True(t, HasCode(wrapped, CodeInternal))
		assert.True(t, HasCode(wrapped, CodeNotFound))
		assert.False(t, HasCode(wrapped, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(stderrors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(New(CodeConflict, "x")))
	assert.Equal(t, CodeConflict, CodeOf(Wrap(New(CodeNotFound, "x"), CodeConflict, "y")))
	assert.Equal(t, CodeInternal, CodeOf(stderrors.New("boom")))
}

func TestWrap(t *testing.T) {
	t.Run("nil cause yields nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "x"))
	})

	t.Run("cause stays reachable through errors.Is", func(t *testing.T) {
		cause := stderrors.New("constraint violated")
		err := Wrap(cause, CodeConflict, "upsert")
		require.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "conflict")
		assert.Contains(t, err.Error(), "constraint violated")
	})
}

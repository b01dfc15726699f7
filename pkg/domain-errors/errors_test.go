package dErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeAlreadyCompleted, "dose already completed")
		assert.True(t, HasCode(err, CodeAlreadyCompleted))
		assert.False(t, HasCode(err, CodeAlreadyCancelled))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		inner := New(CodeNotFound, "dose not found")
		wrapped := fmt.Errorf("lifecycle: %w", inner)
		assert.True(t, HasCode(wrapped, CodeNotFound))
	})

	t.Run("nil and uncoded errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("preserves the cause chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "failed to persist dose")
		require.Error(t, err)
		assert.True(t, errors.Is(err, cause))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("wrapping nil returns nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeDoseDisabled, CodeOf(New(CodeDoseDisabled, "disabled")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("raw infra failure")))
}

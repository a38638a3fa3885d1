package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeValidation, "terms version required")
		assert.True(t, HasCode(err, CodeValidation))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("dispatch: %w", New(CodeNotFound, "process not found"))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches inner code of nested error", func(t *testing.T) {
		inner := New(CodeTimeout, "deadline")
		err := Wrap(inner, CodeUpstreamServiceFailure, "storage upload failed")
		assert.True(t, HasCode(err, CodeUpstreamServiceFailure))
		assert.True(t, HasCode(err, CodeTimeout))
		assert.Equal(t, CodeUpstreamServiceFailure, CodeOf(err))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(New(CodeUpstreamServiceFailure, "x")))
	assert.True(t, IsRecoverable(errors.New("unclassified")))
	assert.False(t, IsRecoverable(New(CodeValidation, "x")))
	assert.False(t, IsRecoverable(New(CodeBudgetUnreachable, "x")))
	assert.False(t, IsRecoverable(New(CodeIdentityMismatch, "x")))
}

package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := Wrap(cause, CodeUpstream, "patent search failed")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeUpstream, CodeOf(err))
		assert.Equal(t, "patent search failed", MessageOf(err))
	})
}

func TestHasCode(t *testing.T) {
	inner := New(CodeTimeout, "search timed out")
	outer := Wrap(inner, CodeUpstream, "analysis failed")

	assert.True(t, HasCode(outer, CodeUpstream))
	assert.True(t, HasCode(outer, CodeTimeout))
	assert.False(t, HasCode(outer, CodeValidation))
	assert.True(t, HasCode(fmt.Errorf("context: %w", inner), CodeTimeout))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, "internal error", MessageOf(errors.New("boom")))
}

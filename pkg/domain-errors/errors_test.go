package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("wrapped cause is reachable", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeInternal, "failed to load account")

		require.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeInternal))
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "account not found")
		outer := fmt.Errorf("resolve: %w", inner)

		assert.True(t, HasCode(outer, CodeNotFound))
		assert.Equal(t, CodeNotFound, CodeOf(outer))
	})
}

func TestIs(t *testing.T) {
	err := New(CodeUnauthorized, "invalid token")

	assert.ErrorIs(t, err, New(CodeUnauthorized, "invalid token"))
	assert.NotErrorIs(t, err, New(CodeUnauthorized, "token has expired"))
}

func TestWithReason(t *testing.T) {
	base := New(CodeForbidden, "search limit reached")
	withReason := base.WithReason("limit_reached")

	assert.Empty(t, base.Reason, "original error must not be mutated")
	assert.Equal(t, "limit_reached", withReason.Reason)
	assert.True(t, HasCode(withReason, CodeForbidden))
}

func TestCodeOf_NonDomainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

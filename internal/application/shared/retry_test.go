package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/erp/manufacturing/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	retryBackoff = 0
	ctx := context.Background()

	t.Run("succeeds after conflicts", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 3, func(context.Context) error {
			calls++
			if calls < 3 {
				return shared.ErrConcurrencyConflict
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("exhausted retries keep the conflict category", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 2, func(context.Context) error {
			calls++
			return shared.ErrConcurrencyConflict
		})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 3, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 5, func(context.Context) error {
			calls++
			return shared.ErrNotFound
		})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.Equal(t, 1, calls)
	})
}

func TestRetryOnConflict_Permanent(t *testing.T) {
	retryBackoff = 0
	calls := 0
	stale := fmt.Errorf("%w: step moved", shared.ErrConcurrencyConflict)
	err := RetryOnConflict(context.Background(), 5, func(context.Context) error {
		calls++
		return Permanent(stale)
	})
	assert.Equal(t, stale, err)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

type countingLocker struct {
	acquired, released int
	err                error
}

func (l *countingLocker) Acquire(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

func TestWithLock(t *testing.T) {
	l := &countingLocker{}
	err := WithLock(context.Background(), l, "k", func(context.Context) error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, 1, l.acquired)
	assert.Equal(t, 1, l.released)

	failing := &countingLocker{err: shared.ErrConcurrencyConflict}
	called := false
	err = WithLock(context.Background(), failing, "k", func(context.Context) error { called = true; return nil })
	assert.Error(t, err)
	assert.False(t, called)

	assert.NoError(t, WithLock(context.Background(), nil, "k", func(context.Context) error { return nil }))
}

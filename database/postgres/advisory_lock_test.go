package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvisoryLock_WithLock(t *testing.T) {
	locker := NewAdvisoryLock(testPool)

	called := false

	acquired, err := locker.WithLock(context.Background(), "test-lock", func(ctx context.Context) error {
		called = true

		return nil
	})
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, called)

	// released after fn returns, so it can be taken again
	acquired, err = locker.WithLock(context.Background(), "test-lock", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestAdvisoryLock_PropagatesError(t *testing.T) {
	locker := NewAdvisoryLock(testPool)

	wantErr := errors.New("job failed")

	acquired, err := locker.WithLock(context.Background(), "test-lock-err", func(ctx context.Context) error {
		return wantErr
	})
	assert.True(t, acquired)
	assert.ErrorIs(t, err, wantErr)
}

func TestAdvisoryLock_MutualExclusion(t *testing.T) {
	locker := NewAdvisoryLock(testPool)

	release := make(chan struct{})
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		_, err := locker.WithLock(context.Background(), "contended-lock", func(ctx context.Context) error {
			close(held)
			<-release

			return nil
		})
		assert.NoError(t, err)
	}()

	<-held

	// second take must not block, it reports the lock as busy
	acquired, err := locker.WithLock(context.Background(), "contended-lock", func(ctx context.Context) error {
		t.Error("must not run while the lock is held")

		return nil
	})
	require.NoError(t, err)
	assert.False(t, acquired)

	// an unrelated key is free
	acquired, err = locker.WithLock(context.Background(), "other-lock", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, acquired)

	close(release)
	<-done

	acquired, err = locker.WithLock(context.Background(), "contended-lock", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, acquired)
}

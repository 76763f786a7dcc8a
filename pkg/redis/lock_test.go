package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLockRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("skip: miniredis unavailable in this environment: %v", err)
	}
	t.Cleanup(srv.Close)

	cli := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	SetClient(cli)
	t.Cleanup(func() { cli.Close() })
	return srv
}

func TestLockManager_AcquireAndRelease(t *testing.T) {
	setupLockRedis(t)
	m := NewLockManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, "intent:abc", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Second acquire while held reports contention, not an error.
	second, err := m.Acquire(ctx, "intent:abc", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, second)

	released, err := m.Release(ctx, "intent:abc", token)
	require.NoError(t, err)
	assert.True(t, released)

	// Free again after release.
	third, err := m.Acquire(ctx, "intent:abc", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, third)
}

func TestLockManager_ReleaseWrongTokenIsNoop(t *testing.T) {
	setupLockRedis(t)
	m := NewLockManager()
	ctx := context.Background()

	token, err := m.Acquire(ctx, "intent:abc", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	released, err := m.Release(ctx, "intent:abc", "not-the-token")
	require.NoError(t, err)
	assert.False(t, released)

	// The real holder can still release.
	released, err = m.Release(ctx, "intent:abc", token)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestLockManager_StaleHolderCannotReleaseReacquiredLock(t *testing.T) {
	srv := setupLockRedis(t)
	m := NewLockManager()
	ctx := context.Background()

	stale, err := m.Acquire(ctx, "intent:abc", time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, stale)

	// Lock expires while the stale holder is still working.
	srv.FastForward(2 * time.Second)

	fresh, err := m.Acquire(ctx, "intent:abc", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, fresh)

	released, err := m.Release(ctx, "intent:abc", stale)
	require.NoError(t, err)
	assert.False(t, released, "stale token must not delete the new holder's lock")

	released, err = m.Release(ctx, "intent:abc", fresh)
	require.NoError(t, err)
	assert.True(t, released)
}

func TestLockManager_WithLockMutualExclusion(t *testing.T) {
	setupLockRedis(t)
	m := NewLockManager()
	ctx := context.Background()

	var calls int
	ran, err := m.WithLock(ctx, "intent:abc", time.Minute, func(ctx context.Context) error {
		calls++
		// Re-entry while held is skipped, not queued.
		nested, nerr := m.WithLock(ctx, "intent:abc", time.Minute, func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, nerr)
		assert.False(t, nested)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, calls)

	// Released on the way out.
	ran, err = m.WithLock(ctx, "intent:abc", time.Minute, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestLockManager_WithLockPropagatesFnErrorAndReleases(t *testing.T) {
	setupLockRedis(t)
	m := NewLockManager()
	ctx := context.Background()

	wantErr := errors.New("boom")
	ran, err := m.WithLock(ctx, "intent:abc", time.Minute, func(ctx context.Context) error { return wantErr })
	assert.True(t, ran)
	assert.ErrorIs(t, err, wantErr)

	token, err := m.Acquire(ctx, "intent:abc", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, token, "lock must be released even when fn fails")
}

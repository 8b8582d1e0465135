package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davorint/amatlan-booking/internal/config"
)

func newTestClient(t *testing.T) *LockManager {
	t.Helper()
	client := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Ping(ctx, client); err != nil {
		t.Skip("Redis not available")
	}
	t.Cleanup(func() { client.Close() })
	return NewLockManager(client)
}

func TestLockManager_AcquireLock(t *testing.T) {
	manager := newTestClient(t)
	ctx := context.Background()

	t.Run("ロックを取得できる", func(t *testing.T) {
		lock, err := manager.AcquireLock(ctx, "test-session-1", 5*time.Second)
		require.NoError(t, err)
		require.NotNil(t, lock)
		defer lock.Release(ctx)
	})

	t.Run("同じキーのロックは取得できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-session-2", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		lock2, err := manager.AcquireLock(ctx, "test-session-2", 5*time.Second)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		assert.Nil(t, lock2)
	})

	t.Run("解放後は再取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-session-3", 5*time.Second)
		require.NoError(t, err)

		require.NoError(t, lock1.Release(ctx))

		lock2, err := manager.AcquireLock(ctx, "test-session-3", 5*time.Second)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("リトライで取得できる", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-session-4", 5*time.Second)
		require.NoError(t, err)

		go func() {
			time.Sleep(300 * time.Millisecond)
			lock1.Release(ctx)
		}()

		lock2, err := manager.AcquireLockWithRetry(ctx, "test-session-4", 5*time.Second, 5, 100*time.Millisecond)
		require.NoError(t, err)
		defer lock2.Release(ctx)
	})

	t.Run("他人のロックは解放できない", func(t *testing.T) {
		lock1, err := manager.AcquireLock(ctx, "test-session-5", 5*time.Second)
		require.NoError(t, err)
		defer lock1.Release(ctx)

		stolen := &DistributedLock{client: lock1.client, key: lock1.key, value: "other-value"}
		assert.ErrorIs(t, stolen.Release(ctx), ErrLockNotOwned)
	})
}

func TestAvailabilityCache(t *testing.T) {
	client := NewClient(&config.RedisConfig{Host: "localhost", Port: "6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Ping(ctx, client); err != nil {
		t.Skip("Redis not available")
	}
	defer client.Close()

	cache := NewAvailabilityCache(client)
	bg := context.Background()

	t.Run("設定と取得", func(t *testing.T) {
		require.NoError(t, cache.SetRemaining(bg, "session-cache-1", 5, 10*time.Second))
		remaining, err := cache.GetRemaining(bg, "session-cache-1")
		require.NoError(t, err)
		assert.Equal(t, 5, remaining)
	})

	t.Run("未設定キーはキャッシュミス", func(t *testing.T) {
		_, err := cache.GetRemaining(bg, "session-cache-missing")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("無効化後はキャッシュミス", func(t *testing.T) {
		require.NoError(t, cache.SetRemaining(bg, "session-cache-2", 3, 10*time.Second))
		require.NoError(t, cache.Invalidate(bg, "session-cache-2"))
		_, err := cache.GetRemaining(bg, "session-cache-2")
		assert.ErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("無制限を表す-1も保存できる", func(t *testing.T) {
		require.NoError(t, cache.SetRemaining(bg, "session-cache-3", -1, 10*time.Second))
		remaining, err := cache.GetRemaining(bg, "session-cache-3")
		require.NoError(t, err)
		assert.Equal(t, -1, remaining)
	})
}

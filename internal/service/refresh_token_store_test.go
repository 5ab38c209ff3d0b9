package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRefreshTokenStores(t *testing.T) {
	client, _ := newTestRedis(t)

	stores := map[string]RefreshTokenStore{
		"memory": NewMemoryRefreshTokenStore(),
		"redis":  NewRedisRefreshTokenStore(client),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Store(ctx, "jti-1", 7, time.Hour))

			ok, err := store.Consume(ctx, "jti-1")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = store.Consume(ctx, "jti-1")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Store(ctx, "jti-2", 7, time.Hour))
			require.NoError(t, store.Revoke(ctx, "jti-2"))
			ok, err = store.Consume(ctx, "jti-2")
			require.NoError(t, err)
			assert.False(t, ok)

			// 空 jti 忽略
			require.NoError(t, store.Store(ctx, " ", 7, time.Hour))
			ok, err = store.Consume(ctx, " ")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRefreshTokenStore_ConcurrentConsume(t *testing.T) {
	client, _ := newTestRedis(t)

	for name, store := range map[string]RefreshTokenStore{
		"memory": NewMemoryRefreshTokenStore(),
		"redis":  NewRedisRefreshTokenStore(client),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Store(ctx, "shared", 1, time.Hour))

			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if ok, err := store.Consume(ctx, "shared"); err == nil && ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins)
		})
	}
}

func TestMemoryRefreshTokenStore_Expiry(t *testing.T) {
	store := NewMemoryRefreshTokenStore().(*memoryRefreshTokenStore)
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Store(context.Background(), "jti", 1, time.Minute))
	store.now = func() time.Time { return now.Add(2 * time.Minute) }

	ok, err := store.Consume(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRefreshTokenStore_StoreSweepsExpired(t *testing.T) {
	store := NewMemoryRefreshTokenStore().(*memoryRefreshTokenStore)
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "stale-1", 1, time.Minute))
	require.NoError(t, store.Store(ctx, "stale-2", 1, time.Minute))
	require.NoError(t, store.Store(ctx, "fresh", 1, time.Hour))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	require.NoError(t, store.Store(ctx, "new", 1, time.Hour))

	store.mu.Lock()
	assert.Len(t, store.items, 2)
	assert.NotContains(t, store.items, "stale-1")
	assert.NotContains(t, store.items, "stale-2")
	store.mu.Unlock()

	ok, err := store.Consume(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisRefreshTokenStore_TTL(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewRedisRefreshTokenStore(client)

	require.NoError(t, store.Store(context.Background(), "jti", 42, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("auth:refresh:jti"))

	val, err := mr.Get("auth:refresh:jti")
	require.NoError(t, err)
	assert.Equal(t, "42", val)

	mr.FastForward(2 * time.Minute)
	ok, err := store.Consume(context.Background(), "jti")
	require.NoError(t, err)
	assert.False(t, ok)
}

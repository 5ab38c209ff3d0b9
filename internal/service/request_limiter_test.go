package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisRequestLimiter(t *testing.T) {
	client, mr := newTestRedis(t)
	limiter := NewRedisRequestLimiter(client, time.Minute, 2)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "reset:a@b.co"))
	assert.True(t, limiter.Allow(ctx, "RESET:A@B.CO "))
	assert.False(t, limiter.Allow(ctx, "reset:a@b.co"))
	assert.True(t, limiter.Allow(ctx, "reset:other@b.co"))
	assert.Equal(t, time.Minute, mr.TTL("auth:rl:reset:a@b.co"))

	mr.FastForward(61 * time.Second)
	assert.True(t, limiter.Allow(ctx, "reset:a@b.co"))

	assert.False(t, limiter.Allow(ctx, "  "))
}

func TestRedisRequestLimiter_FailsOpen(t *testing.T) {
	client, mr := newTestRedis(t)
	limiter := NewRedisRequestLimiter(client, time.Minute, 1)
	mr.Close()

	assert.True(t, limiter.Allow(context.Background(), "reset:a@b.co"))
	assert.True(t, limiter.Allow(context.Background(), "reset:a@b.co"))
}

func TestMemoryRequestLimiter(t *testing.T) {
	limiter := NewMemoryRequestLimiter(time.Minute, 2).(*memoryRequestLimiter)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k"))
	assert.True(t, limiter.Allow(ctx, "K"))
	assert.False(t, limiter.Allow(ctx, "k"))
	assert.True(t, limiter.Allow(ctx, "other"))

	limiter.now = func() time.Time { return now.Add(time.Minute) }
	assert.True(t, limiter.Allow(ctx, "k"))
	assert.False(t, limiter.Allow(ctx, ""))
}

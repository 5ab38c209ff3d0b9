package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RequestLimiter 限制同一个 key 在窗口内的请求次数（重置密码、重发验证邮件）
type RequestLimiter interface {
	Allow(ctx context.Context, key string) bool
}

const redisAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisRequestLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
	prefix string
}

func NewRedisRequestLimiter(client *redis.Client, window time.Duration, max int) RequestLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisRequestLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "auth:rl:",
	}
}

// Allow Redis 不可用时放行
func (l *redisRequestLimiter) Allow(ctx context.Context, key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisAllowScript, []string{l.prefix + normalized}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

type memoryRequestLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]*limiterBucket
	now     func() time.Time
}

type limiterBucket struct {
	count     int
	expiresAt time.Time
}

func NewMemoryRequestLimiter(window time.Duration, max int) RequestLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryRequestLimiter{
		window:  window,
		max:     max,
		buckets: make(map[string]*limiterBucket),
		now:     time.Now,
	}
}

func (l *memoryRequestLimiter) Allow(_ context.Context, key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, b := range l.buckets {
		if !now.Before(b.expiresAt) {
			delete(l.buckets, k)
		}
	}

	b, ok := l.buckets[normalized]
	if !ok {
		b = &limiterBucket{expiresAt: now.Add(l.window)}
		l.buckets[normalized] = b
	}
	b.count++
	return b.count <= l.max
}

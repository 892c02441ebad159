package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// RedisRateLimiter shares limits across instances using fixed windows.
// A rule allows Burst requests per Burst/Rate seconds. Redis failures fail closed.
type RedisRateLimiter struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

// NewRedisRateLimiter dials addr and returns a distributed limiter.
func NewRedisRateLimiter(addr, password, prefix string) (*RedisRateLimiter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return NewRedisRateLimiterWithClient(client, prefix), nil
}

func NewRedisRateLimiterWithClient(client redis.UniversalClient, prefix string) *RedisRateLimiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "careercoach:ratelimit"
	}
	return &RedisRateLimiter{
		client:  client,
		prefix:  prefix,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if rule.unlimited() {
		return true, 0
	}
	if l == nil || l.client == nil {
		return false, time.Second
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	window := time.Duration(math.Ceil(float64(rule.Burst)/rule.Rate*1000.0)) * time.Millisecond
	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		return true, 0
	}
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64Slice()
	if err != nil || len(res) != 2 {
		return false, time.Second
	}
	if res[0] <= int64(rule.Burst) {
		return true, 0
	}
	retryAfter := time.Duration(res[1]) * time.Millisecond
	if retryAfter <= 0 {
		retryAfter = time.Second
	}
	return false, retryAfter
}

// Ping checks the Redis connection.
func (l *RedisRateLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (l *RedisRateLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

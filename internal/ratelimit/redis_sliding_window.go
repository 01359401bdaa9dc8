package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/galimov-i/music-site/internal/util"
)

// Returns {allowed, retry_after_ms}. Hits older than the window are dropped
// before counting; a rejected hit is not recorded.
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
local count = redis.call("ZCARD", KEYS[1])
if count >= limit then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  local retry = window
  if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
  end
  return {0, retry}
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return {1, 0}
`)

// RedisSlidingWindowLimiter shares quota across replicas through Redis.
type RedisSlidingWindowLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	redisClient *redis.Client
	redisPrefix string
}

// NewRedisSlidingWindowLimiter creates a Redis-backed distributed limiter.
func NewRedisSlidingWindowLimiter(addr, password, prefix string, limit int, window time.Duration, options ...Option) (*RedisSlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "site:ratelimit"
	}
	opts := buildOptions(options)
	return &RedisSlidingWindowLimiter{
		limit:  limit,
		window: window,
		now:    opts.Now,
		redisClient: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		redisPrefix: prefix,
	}, nil
}

// Allow returns the decision for key. On Redis failures it fails closed.
func (l *RedisSlidingWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l == nil {
		return Decision{}, errors.New("rate limiter not configured")
	}
	key = normalizeKey(strings.TrimSpace(key))
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	nowMs := l.now().UnixMilli()
	windowMs := l.window.Milliseconds()
	redisKey := fmt.Sprintf("%s:%s", l.redisPrefix, key)
	member := fmt.Sprintf("%d-%s", nowMs, util.NewID())
	res, err := slidingWindowScript.Run(ctx, l.redisClient, []string{redisKey}, nowMs, windowMs, l.limit, member).Int64Slice()
	if err != nil {
		return Decision{RetryAfter: l.window}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 2 {
		return Decision{RetryAfter: l.window}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	if res[0] == 1 {
		return Decision{Allowed: true}, nil
	}
	return Decision{RetryAfter: time.Duration(res[1]) * time.Millisecond}, nil
}

// Close releases the Redis connection pool.
func (l *RedisSlidingWindowLimiter) Close() error {
	if l == nil || l.redisClient == nil {
		return nil
	}
	return l.redisClient.Close()
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSlidingWindowLimiter(t *testing.T) {
	redis := miniredis.RunT(t)
	clock := newFakeClock()
	limiter, err := NewRedisSlidingWindowLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Minute, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	ctx := context.Background()

	if d, err := limiter.Allow(ctx, "ip-1"); err != nil || !d.Allowed {
		t.Fatalf("first request should pass: %+v err=%v", d, err)
	}
	clock.Advance(10 * time.Second)
	if d, err := limiter.Allow(ctx, "ip-1"); err != nil || !d.Allowed {
		t.Fatalf("second request should pass: %+v err=%v", d, err)
	}
	d, err := limiter.Allow(ctx, "ip-1")
	if err != nil {
		t.Fatalf("third request: %v", err)
	}
	if d.Allowed {
		t.Fatalf("third request should be blocked")
	}
	if d.RetryAfter != 50*time.Second {
		t.Fatalf("retry after = %v, want 50s", d.RetryAfter)
	}

	clock.Advance(50 * time.Second)
	if d, err := limiter.Allow(ctx, "ip-1"); err != nil || !d.Allowed {
		t.Fatalf("request after oldest hit expired should pass: %+v err=%v", d, err)
	}
}

func TestRedisSlidingWindowLimiterFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisSlidingWindowLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	redis.Close()
	d, err := limiter.Allow(context.Background(), "ip-1")
	if err == nil {
		t.Fatalf("expected redis error")
	}
	if d.Allowed {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestRedisSlidingWindowLimiterRequiresRedisAddr(t *testing.T) {
	limiter, err := NewRedisSlidingWindowLimiter("", "", "test:ratelimit", 1, time.Second)
	if err == nil || limiter != nil {
		t.Fatalf("expected constructor error for empty redis addr")
	}
}

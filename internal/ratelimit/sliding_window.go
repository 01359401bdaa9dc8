package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SlidingWindowLimiter keeps per-key hit timestamps in process memory.
// Idle keys expire after one window and the key set is bounded, so the
// least recently used key is evicted when capacity is reached.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	hits   *expirable.LRU[string, []time.Time]
}

// NewSlidingWindowLimiter creates an in-memory limiter admitting limit hits
// per key in any window-long interval.
func NewSlidingWindowLimiter(limit int, window time.Duration, options ...Option) (*SlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	opts := buildOptions(options)
	return &SlidingWindowLimiter{
		limit:  limit,
		window: window,
		now:    opts.Now,
		hits:   expirable.NewLRU[string, []time.Time](opts.Capacity, nil, window),
	}, nil
}

// Allow records a hit for key when it is within quota.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (Decision, error) {
	key = normalizeKey(key)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	prev, _ := l.hits.Get(key)
	kept := make([]time.Time, 0, len(prev)+1)
	for _, t := range prev {
		if now.Sub(t) < l.window {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.limit {
		l.hits.Add(key, kept)
		return Decision{RetryAfter: kept[0].Add(l.window).Sub(now)}, nil
	}
	l.hits.Add(key, append(kept, now))
	return Decision{Allowed: true}, nil
}

// Len reports how many keys are currently tracked.
func (l *SlidingWindowLimiter) Len() int {
	return l.hits.Len()
}

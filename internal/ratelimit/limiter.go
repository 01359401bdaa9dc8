package ratelimit

import (
	"context"
	"time"
)

// Default quota applied to form submissions per client IP.
const (
	DefaultLimit  = 5
	DefaultWindow = time.Minute
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the oldest counted hit leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// Limiter admits or rejects requests per key.
// Implementations fail closed: a non-nil error comes with a rejecting Decision.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Options configures limiter construction.
type Options struct {
	Now      func() time.Time
	Capacity int
}

type Option func(*Options)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// WithCapacity bounds how many distinct keys the in-memory limiter tracks.
func WithCapacity(n int) Option {
	return func(o *Options) {
		o.Capacity = n
	}
}

func buildOptions(options []Option) Options {
	opts := Options{Now: time.Now, Capacity: 10000}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 10000
	}
	return opts
}

func normalizeKey(key string) string {
	if key == "" {
		return "unknown"
	}
	return key
}

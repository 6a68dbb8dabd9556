package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/lessonforge/lessonplan-api/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	ActionLogin    = "login"
	ActionRegister = "register"
)

// RateLimitError carries the remaining window so handlers can set a
// Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return apperror.ErrRateLimitExceeded
}

// Limiter is a fixed-window limiter over redis SetNX. A nil client disables
// limiting, so redis stays optional in development.
type Limiter struct {
	rdb    *redis.Client
	window time.Duration
}

func New(rdb *redis.Client, window time.Duration) *Limiter {
	return &Limiter{rdb: rdb, window: window}
}

// Allow reports whether the caller identified by key may perform action now,
// and if not, how long until the window resets.
func (l *Limiter) Allow(ctx context.Context, key, action string) (bool, time.Duration, error) {
	if l == nil || l.rdb == nil {
		return true, 0, nil
	}

	redisKey := fmt.Sprintf("rate_limit:ip:%s:%s", key, action)

	wasSet, err := l.rdb.SetNX(ctx, redisKey, "locked", l.window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ratelimiter: redis setnx: %w", err)
	}
	if wasSet {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, redisKey).Result()
	if err != nil {
		ttl = l.window
	}

	return false, ttl, nil
}

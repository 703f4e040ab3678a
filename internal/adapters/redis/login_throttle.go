package redis

// Package redis provides Redis-based adapters for staffgate.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalora/staffgate/internal/ports"
)

// recordFailureScript increments the counter and starts the window on the first failure only,
// so the window is fixed from the first failed attempt.
var recordFailureScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// LoginThrottle is a fixed-window failed-login counter shared by every replica.
type LoginThrottle struct {
	client      redis.UniversalClient
	prefix      string
	maxAttempts int
	window      time.Duration
}

var _ ports.LoginThrottle = (*LoginThrottle)(nil)

// LoginThrottleOptions configures a LoginThrottle.
type LoginThrottleOptions struct {
	MaxAttempts int
	Window      time.Duration
	// Prefix defaults to "login_throttle:".
	Prefix string
}

// NewLoginThrottle creates a Redis-backed login throttle.
func NewLoginThrottle(client redis.UniversalClient, opts LoginThrottleOptions) *LoginThrottle {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "login_throttle:"
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &LoginThrottle{
		client:      client,
		prefix:      prefix,
		maxAttempts: maxAttempts,
		window:      opts.Window,
	}
}

// Check reports whether key still has budget left.
func (l *LoginThrottle) Check(ctx context.Context, key string) (ports.ThrottleDecision, error) {
	k := l.prefix + key
	count, err := l.client.Get(ctx, k).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.ThrottleDecision{Allowed: true, Remaining: l.maxAttempts}, nil
		}
		return ports.ThrottleDecision{}, fmt.Errorf("redis get: %w", err)
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return ports.ThrottleDecision{}, fmt.Errorf("redis pttl: %w", err)
	}
	return l.decision(count, ttl), nil
}

// RecordFailure counts one failed attempt for key.
func (l *LoginThrottle) RecordFailure(ctx context.Context, key string) (ports.ThrottleDecision, error) {
	res, err := recordFailureScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return ports.ThrottleDecision{}, fmt.Errorf("redis record failure: %w", err)
	}
	if len(res) != 2 {
		return ports.ThrottleDecision{}, fmt.Errorf("redis record failure: unexpected reply length %d", len(res))
	}
	return l.decision(int(res[0]), time.Duration(res[1])*time.Millisecond), nil
}

// Reset forgets all failures for key.
func (l *LoginThrottle) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (l *LoginThrottle) decision(count int, ttl time.Duration) ports.ThrottleDecision {
	if ttl < 0 {
		// Key without expiry (or already gone): fall back to a full window.
		ttl = l.window
	}
	remaining := l.maxAttempts - count
	if remaining > 0 {
		return ports.ThrottleDecision{Allowed: true, Remaining: remaining}
	}
	return ports.ThrottleDecision{Allowed: false, RetryAfter: ttl}
}

// Package throttle provides in-process login throttles.
package throttle

import (
	"context"
	"sync"
	"time"

	"github.com/vitalora/staffgate/internal/ports"
)

// sweepThreshold bounds memory held by abandoned keys.
const sweepThreshold = 10_000

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a per-process fixed-window failed-login counter.
// Use the Redis throttle when running more than one replica.
type Memory struct {
	mu          sync.Mutex
	windows     map[string]*window
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

var _ ports.LoginThrottle = (*Memory)(nil)

// MemoryOptions configures a Memory throttle.
type MemoryOptions struct {
	MaxAttempts int
	Window      time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewMemory creates an in-memory throttle.
func NewMemory(opts MemoryOptions) *Memory {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Memory{
		windows:     make(map[string]*window),
		maxAttempts: maxAttempts,
		window:      opts.Window,
		now:         now,
	}
}

// Check reports whether key still has budget left.
func (m *Memory) Check(_ context.Context, key string) (ports.ThrottleDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		return ports.ThrottleDecision{Allowed: true, Remaining: m.maxAttempts}, nil
	}
	return m.decision(w, now), nil
}

// RecordFailure counts one failed attempt for key.
func (m *Memory) RecordFailure(_ context.Context, key string) (ports.ThrottleDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if len(m.windows) >= sweepThreshold {
		m.sweep(now)
	}

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}
	w.count++
	return m.decision(w, now), nil
}

// Reset forgets all failures for key.
func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

func (m *Memory) decision(w *window, now time.Time) ports.ThrottleDecision {
	remaining := m.maxAttempts - w.count
	if remaining > 0 {
		return ports.ThrottleDecision{Allowed: true, Remaining: remaining}
	}
	return ports.ThrottleDecision{Allowed: false, RetryAfter: w.resetAt.Sub(now)}
}

func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}

// Noop never throttles. It is used when throttling is disabled.
type Noop struct{}

var _ ports.LoginThrottle = Noop{}

func (Noop) Check(context.Context, string) (ports.ThrottleDecision, error) {
	return ports.ThrottleDecision{Allowed: true}, nil
}

func (Noop) RecordFailure(context.Context, string) (ports.ThrottleDecision, error) {
	return ports.ThrottleDecision{Allowed: true}, nil
}

func (Noop) Reset(context.Context, string) error { return nil }

// Package ratelimit provides the per-client request limiter guarding the
// public audit endpoint.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Defaults for the public audit endpoint.
const (
	DefaultLimit         = 5
	DefaultWindow        = time.Hour
	DefaultSweepInterval = 10 * time.Minute
)

// Decision is the outcome of one Check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter decides whether a request identified by key may proceed.
// Implementations backed by a shared store can replace FixedWindow in
// multi-instance deployments.
type Limiter interface {
	Check(key string) Decision
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow is an in-process fixed-window counter keyed by client.
// The first request of a window starts it; the window ends Window later.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	entries map[string]*window
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *FixedWindow) { l.now = now }
}

// NewFixedWindow creates a limiter allowing limit requests per window.
// Non-positive values fall back to the defaults.
func NewFixedWindow(limit int, win time.Duration, opts ...Option) *FixedWindow {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if win <= 0 {
		win = DefaultWindow
	}
	l := &FixedWindow{
		limit:   limit,
		window:  win,
		now:     time.Now,
		entries: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records a request for key and reports whether it is allowed.
func (l *FixedWindow) Check(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		e = &window{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return Decision{Allowed: true, Remaining: l.limit - 1, ResetAt: e.resetAt}
	}

	if e.count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Decision{Allowed: true, Remaining: l.limit - e.count, ResetAt: e.resetAt}
}

// Sweep deletes expired windows and returns how many were removed.
func (l *FixedWindow) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run sweeps every interval until ctx is cancelled.
func (l *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

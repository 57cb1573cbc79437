// Package ratelimiter throttles callers with a fixed-window counter keyed
// by client IP. Every burn request fans out into chain RPC traffic, so
// callers are limited before any handler runs.
package ratelimiter

import (
	"sync"
	"time"
)

// windowCounter tracks one client's requests in the current window
type windowCounter struct {
	count   int
	resetAt time.Time
}

// RateLimiter allows up to limit requests per client per window
type RateLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	limit    int
	window   time.Duration
}

// New creates a RateLimiter allowing limit requests per window
func New(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counters: make(map[string]*windowCounter),
		limit:    limit,
		window:   window,
	}
}

// Allow records a request for the client and reports whether it fits the
// current window, along with the remaining budget and the window's reset
// time. The check and the count update happen under one lock.
func (rl *RateLimiter) Allow(client string) (allowed bool, remaining int, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	counter, ok := rl.counters[client]
	if !ok || now.After(counter.resetAt) {
		counter = &windowCounter{resetAt: now.Add(rl.window)}
		rl.counters[client] = counter
	}

	if counter.count >= rl.limit {
		return false, 0, counter.resetAt
	}

	counter.count++
	return true, rl.limit - counter.count, counter.resetAt
}

// Cleanup drops counters whose window has expired
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for client, counter := range rl.counters {
		if now.After(counter.resetAt) {
			delete(rl.counters, client)
		}
	}
}

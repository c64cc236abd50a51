package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for request rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	// and reserves a slot when it is
	Allow() bool
	// Wait blocks until the rate limit admits another request or the
	// context is cancelled
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// SlidingWindow implements a sliding window rate limiter. It keeps the
// timestamps of recent requests and prunes anything older than the window
// on every check, so compliance is against true wall-clock windows rather
// than token refill intervals.
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed and records it if so
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.pruneLocked(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until a request slot is available, then reserves it.
// The suspension is a cancellable timer, not a busy loop: when the window
// is full the caller sleeps until the oldest recorded request ages out.
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		if sw.Allow() {
			return nil
		}

		sw.mu.Lock()
		var wait time.Duration
		if len(sw.requests) > 0 {
			oldest := sw.requests[0]
			wait = sw.windowSize - time.Since(oldest)
		}
		sw.mu.Unlock()

		if wait <= 0 {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// Pending returns the number of requests currently inside the window
func (sw *SlidingWindow) Pending() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.pruneLocked(time.Now())
	return len(sw.requests)
}

// pruneLocked removes requests that have aged out of the window.
// Callers must hold sw.mu.
func (sw *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

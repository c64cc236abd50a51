// Package ratelimit provides request pacing for the Discord REST API.
//
// Discord enforces true per-second request windows, so the limiter here is
// a sliding window over wall-clock timestamps rather than a refilling token
// counter: every admitted request records its timestamp, every check prunes
// timestamps older than the window, and a full window suspends the caller
// until the oldest recorded request ages out. This guarantees the trailing
// window never holds more than the configured number of requests, without
// overshoot at window boundaries.
//
// Interface:
//
// Rate limiters implement the Limiter interface:
//   - Allow() bool - Check if a request is allowed, reserving a slot if so
//   - Wait(ctx) error - Block until a request is allowed or ctx is cancelled
//   - Reset() - Reset the limiter state
//
// Usage:
//
//	// 10 requests per second
//	limiter := ratelimit.NewSlidingWindow(10, time.Second)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // cancelled
//	}
//	// Proceed with request
package ratelimit

// Package retry provides exponential backoff for transient failures in
// Discord API calls.
//
// Only rate-limit errors (HTTP 429) are retried: the remote API signals
// throttling explicitly, and every other failure class either will not
// change on retry (auth, access, not-found) or must surface to the caller
// (server and network errors). Retries wait BaseDelay * 2^(attempt-1)
// between attempts, 1s/2s/4s by default, and every wait is cancellable
// through the configured context.
//
// Basic usage:
//
//	err := retry.Do(func() error {
//		_, err := client.FetchMessages(ctx, channelID, before, limit)
//		return err
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:  2 * time.Second,
//			MaxDelay:   30 * time.Second,
//			Multiplier: 2.0,
//		},
//		RetryIf: retry.RateLimitOnly,
//		Context: ctx,
//	}
//	err := retry.Do(operation, cfg)
package retry

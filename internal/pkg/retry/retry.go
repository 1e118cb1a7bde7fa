package retry

import (
	"context"
	"time"
)

// Class tells the policy what to do with an attempt's error.
type Class int

const (
	// Permanent stops the loop and returns the error as-is.
	Permanent Class = iota
	// Retryable waits the policy delay before the next attempt.
	Retryable
	// Immediate retries without waiting. Used for errors where the cause
	// has already been remediated in-band, e.g. an expired token that was
	// refreshed before the error was returned.
	Immediate
)

// Policy is a fixed-delay retry policy with an error classifier. The delay
// depends on the class of the previous error, which is why this is not a
// cenkalti/backoff BackOff: that interface never sees the error.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Classify    func(error) Class
}

// Do runs op up to MaxAttempts times. It returns the first success or the
// last error once attempts are exhausted. Context cancellation during a
// delay aborts the loop with ctx.Err().
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		switch p.Classify(err) {
		case Permanent:
			return zero, err
		case Immediate:
			continue
		case Retryable:
			if attempt == p.MaxAttempts-1 {
				break // no point sleeping after the final attempt
			}
			timer := time.NewTimer(p.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}

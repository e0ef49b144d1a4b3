package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
)

// Policy bounds how often and how slowly an operation is retried
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Multiplier grows the delay after every failed attempt; 1 keeps it fixed
	Multiplier float64
	MaxDelay   time.Duration
}

// DefaultPolicy retries three times, five seconds apart
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
		Multiplier:  1,
		MaxDelay:    30 * time.Second,
	}
}

// FatalError is returned once every attempt has failed
type FatalError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: giving up after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff returns the wait before the attempt following the given one (1-based)
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.Delay)
	for i := 1; i < attempt; i++ {
		d *= mult
		if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	return time.Duration(d)
}

// Do runs op until it succeeds, returns a permanent error, or the attempts run out.
// Exhaustion yields a *FatalError wrapping the last error. Cancellation of ctx
// returns ctx.Err() without further attempts.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err

		var perm *permanentError
		if errors.As(err, &perm) {
			return zero, &FatalError{Op: op, Attempts: attempt, Err: perm.err}
		}

		if attempt == attempts {
			break
		}

		backoff := p.Backoff(attempt)
		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Err(err).
			Dur("backoff", backoff).
			Msg("[Retry] Attempt failed, retrying after backoff")

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	return zero, &FatalError{Op: op, Attempts: attempts, Err: lastErr}
}

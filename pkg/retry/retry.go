// Package retry provides a small context-aware retry engine with
// configurable backoff. The orchestrator uses it to re-run upserts that
// lost a concurrent-merge race; those retries must stay invisible to the
// scan as long as one attempt succeeds.
package retry

import (
	"context"
	"errors"
	"time"
)

// Strategy defines the backoff algorithm.
type Strategy int

const (
	// Exponential doubles the delay each attempt: initDelay * 2^attempt.
	Exponential Strategy = iota
	// Linear increases the delay linearly: initDelay * (attempt+1).
	Linear
	// Constant uses the same delay between every attempt.
	Constant
)

// Config controls retry behaviour.
type Config struct {
	MaxAttempts int           // Total attempts (including the first). 0 means no-op.
	InitDelay   time.Duration // Base delay before first retry.
	MaxDelay    time.Duration // Upper bound on any single delay.
	Strategy    Strategy      // Backoff algorithm.
}

// DefaultConfig returns a sensible default: 3 attempts, exponential
// backoff from 10 ms to 1 s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		InitDelay:   10 * time.Millisecond,
		MaxDelay:    time.Second,
		Strategy:    Exponential,
	}
}

// StopError wraps an error to signal that retrying should stop
// immediately. Use it when the error is known to be permanent.
type StopError struct {
	Err error
}

func (e *StopError) Error() string { return e.Err.Error() }
func (e *StopError) Unwrap() error { return e.Err }

// Stop wraps err so that Do returns it without further retries.
func Stop(err error) error {
	return &StopError{Err: err}
}

// Do executes fn up to cfg.MaxAttempts times, sleeping between failures
// according to the configured strategy. It returns nil on the first
// successful call, or the last error if all attempts fail. If the context
// is cancelled, ctx.Err() is returned.
//
// If fn returns a StopError, Do returns the wrapped error without
// retrying.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		return nil
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var stop *StopError
		if errors.As(lastErr, &stop) {
			return stop.Err
		}

		if attempt == cfg.MaxAttempts-1 {
			break
		}
		select {
		case <-time.After(cfg.delay(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

// delay computes the backoff before the retry following the given attempt.
func (cfg Config) delay(attempt int) time.Duration {
	var d time.Duration
	switch cfg.Strategy {
	case Linear:
		d = cfg.InitDelay * time.Duration(attempt+1)
	case Constant:
		d = cfg.InitDelay
	default:
		d = cfg.InitDelay << uint(attempt)
	}
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}

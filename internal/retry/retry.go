// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry implements bounded retry with exponential or linear
// backoff and jitter. Rate limiting decides when a call may start;
// retry decides how many times it may restart; the two compose at the
// HTTP-client layer.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"
)

// Strategy selects how the delay grows between attempts.
type Strategy string

const (
	// Exponential doubles the base delay each attempt.
	Exponential Strategy = "exponential"
	// Linear adds the base delay each attempt.
	Linear Strategy = "linear"
)

// ExhaustedError reports that every attempt failed. It wraps the last
// error so callers can inspect the underlying cause.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry exhausted after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Policy holds the retry parameters. The zero value retries nothing;
// use NewPolicy for sensible defaults.
type Policy struct {
	// MaxRetries is the number of retries beyond the first call, so a
	// policy with MaxRetries=0 calls the function exactly once.
	MaxRetries int

	// BaseDelay seeds the backoff schedule.
	BaseDelay time.Duration

	// MaxDelay caps the pre-jitter delay.
	MaxDelay time.Duration

	// Strategy selects exponential or linear growth.
	Strategy Strategy

	// Retryable classifies errors. Only errors for which it returns
	// true are retried; everything else propagates immediately. A nil
	// classifier retries nothing.
	Retryable func(error) bool

	// slept accumulates total backoff sleep for telemetry.
	slept atomic.Int64
}

// NewPolicy returns a policy with exponential backoff, 1 s base delay
// and 30 s cap.
func NewPolicy(maxRetries int, retryable func(error) bool) *Policy {
	return &Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Strategy:   Exponential,
		Retryable:  retryable,
	}
}

// Delay returns the pre-jitter backoff for 0-indexed attempt k.
func (p *Policy) Delay(k int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	var d time.Duration
	switch p.Strategy {
	case Linear:
		d = base * time.Duration(k+1)
	default:
		d = base << uint(k)
		if d < base { // overflow
			d = p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// jitter adds a uniform random component in [0, 0.1·d].
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(int64(d)/10+1))
}

// TotalSlept reports the cumulative time this policy has spent in
// backoff waits.
func (p *Policy) TotalSlept() time.Duration {
	return time.Duration(p.slept.Load())
}

// Execute runs fn, retrying retryable failures up to MaxRetries times.
// It honors ctx during backoff waits. After exhausting attempts it
// returns an *ExhaustedError wrapping the last failure.
func (p *Policy) Execute(ctx context.Context, fn func() error) error {
	var last error
	for attempt := 0; ; attempt++ {
		last = fn()
		if last == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(last) {
			return last
		}
		if attempt >= p.MaxRetries {
			return &ExhaustedError{Attempts: attempt + 1, Last: last}
		}

		wait := jitter(p.Delay(attempt))
		start := time.Now()
		select {
		case <-ctx.Done():
			p.slept.Add(int64(time.Since(start)))
			return ctx.Err()
		case <-time.After(wait):
			p.slept.Add(int64(wait))
		}
	}
}

// Wrap returns the decorator form of the policy: a function that runs
// fn under this policy every time it is invoked.
func (p *Policy) Wrap(fn func() error) func(context.Context) error {
	return func(ctx context.Context) error {
		return p.Execute(ctx, fn)
	}
}

// RetryableAny builds a classifier matching any of the given sentinel
// errors via errors.Is.
func RetryableAny(sentinels ...error) func(error) bool {
	return func(err error) bool {
		for _, s := range sentinels {
			if errors.Is(err, s) {
				return true
			}
		}
		return false
	}
}

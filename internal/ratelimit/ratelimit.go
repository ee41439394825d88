// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit provides a token-bucket rate limiter with an
// optional daily request cap. Every outbound API call in the pipeline
// passes through one of these limiters.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrDailyLimitExceeded is returned when the daily cap is exhausted.
// It is never retried; callers must wait for the 24 h window to reset.
var ErrDailyLimitExceeded = errors.New("daily request limit exceeded")

// Limiter combines a continuous token bucket (r tokens/second, burst b)
// with an optional daily counter that resets every 24 hours. The bucket
// is delegated to golang.org/x/time/rate; the daily counter is guarded
// by a mutex so the limiter is safe to share across goroutines.
type Limiter struct {
	bucket *rate.Limiter

	mu         sync.Mutex
	dailyLimit int
	dailyCount int
	dailyReset time.Time
}

// New creates a limiter dispensing rps tokens per second with the given
// burst. A dailyLimit of 0 disables the daily cap.
func New(rps float64, burst int, dailyLimit int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		bucket:     rate.NewLimiter(rate.Limit(rps), burst),
		dailyLimit: dailyLimit,
		dailyReset: time.Now().Add(24 * time.Hour),
	}
}

// checkDaily consumes n from the daily counter, resetting the window
// first when 24 h have elapsed.
func (l *Limiter) checkDaily(n int) error {
	if l.dailyLimit <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if !now.Before(l.dailyReset) {
		l.dailyCount = 0
		l.dailyReset = now.Add(24 * time.Hour)
	}
	if l.dailyCount+n > l.dailyLimit {
		return fmt.Errorf("%w (%d/%d, resets %s)",
			ErrDailyLimitExceeded, l.dailyCount, l.dailyLimit,
			l.dailyReset.Format(time.RFC3339))
	}
	l.dailyCount += n
	return nil
}

// refundDaily returns n tokens to the daily counter after a failed
// bucket wait, so a timeout does not burn quota.
func (l *Limiter) refundDaily(n int) {
	if l.dailyLimit <= 0 {
		return
	}
	l.mu.Lock()
	if l.dailyCount >= n {
		l.dailyCount -= n
	} else {
		l.dailyCount = 0
	}
	l.mu.Unlock()
}

// Acquire blocks until n tokens are available or ctx is done. This is
// the cooperative variant: cancellation and deadlines arrive via ctx.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if err := l.checkDaily(n); err != nil {
		return err
	}
	if err := l.bucket.WaitN(ctx, n); err != nil {
		l.refundDaily(n)
		return err
	}
	return nil
}

// AcquireTimeout blocks until n tokens are available, up to timeout.
// This is the synchronous variant; it reports false on timeout. A zero
// timeout waits indefinitely.
func (l *Limiter) AcquireTimeout(n int, timeout time.Duration) (bool, error) {
	if err := l.checkDaily(n); err != nil {
		return false, err
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := l.bucket.WaitN(ctx, n); err != nil {
		l.refundDaily(n)
		// WaitN signals an unmeetable deadline with its own error
		// value, not context.DeadlineExceeded, so any failure under
		// a live timeout counts as a timeout.
		if timeout > 0 {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TryAcquire reports whether n tokens were available immediately.
func (l *Limiter) TryAcquire(n int) (bool, error) {
	if err := l.checkDaily(n); err != nil {
		return false, err
	}
	if !l.bucket.AllowN(time.Now(), n) {
		l.refundDaily(n)
		return false, nil
	}
	return true, nil
}

// Reset restores a full bucket and clears the daily counter. Intended
// for tests; not safe to call while other goroutines hold the limiter.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.dailyCount = 0
	l.dailyReset = time.Now().Add(24 * time.Hour)
	l.mu.Unlock()
	l.bucket = rate.NewLimiter(l.bucket.Limit(), l.bucket.Burst())
}

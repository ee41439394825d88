// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireWithinBurst(t *testing.T) {
	l := New(10, 10, 0)
	for i := 0; i < 10; i++ {
		ok, err := l.TryAcquire(1)
		require.NoError(t, err)
		assert.True(t, ok, "token %d within burst should be available", i)
	}
	ok, err := l.TryAcquire(1)
	require.NoError(t, err)
	assert.False(t, ok, "11th immediate token should be throttled")
}

func TestAcquirePacing(t *testing.T) {
	// 10 rps, burst 10: 25 back-to-back acquires must take at least
	// 1.5 s (the 15 tokens beyond the burst at 10/s).
	l := New(10, 10, 0)
	start := time.Now()
	for i := 0; i < 25; i++ {
		require.NoError(t, l.Acquire(context.Background(), 1))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 1400*time.Millisecond,
		"25 acquires at 10 rps/burst 10 finished too fast: %v", elapsed)
}

func TestAcquireTimeout(t *testing.T) {
	l := New(1, 1, 0)
	ok, err := l.AcquireTimeout(1, 0)
	require.NoError(t, err)
	require.True(t, ok)

	// Bucket drained; next token is ~1 s away, so 50 ms must time out.
	// WaitN reports this with its own "would exceed context deadline"
	// error rather than context.DeadlineExceeded; both must surface as
	// a plain timeout here.
	ok, err = l.AcquireTimeout(1, 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	// A request that can never fit the deadline is still a timeout,
	// not an error.
	ok, err = l.AcquireTimeout(5, 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDailyLimit(t *testing.T) {
	l := New(1000, 1000, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background(), 1))
	}
	err := l.Acquire(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDailyLimitExceeded))

	// TryAcquire reports the same condition.
	_, err = l.TryAcquire(1)
	assert.True(t, errors.Is(err, ErrDailyLimitExceeded))

	l.Reset()
	require.NoError(t, l.Acquire(context.Background(), 1))
}

func TestAcquireContextCancel(t *testing.T) {
	l := New(1, 1, 0)
	require.NoError(t, l.Acquire(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Acquire(ctx, 1)
	assert.Error(t, err)
}

func TestTimeoutDoesNotBurnDailyQuota(t *testing.T) {
	l := New(0.1, 1, 2)
	require.NoError(t, l.Acquire(context.Background(), 1))

	// This wait times out; its daily token must be refunded.
	ok, err := l.AcquireTimeout(1, 20*time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	l.mu.Lock()
	count := l.dailyCount
	l.mu.Unlock()
	assert.Equal(t, 1, count)
}

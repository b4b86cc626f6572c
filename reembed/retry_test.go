package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errEmbedServiceDown = errors.New("embedding service unavailable")

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	embed := func() error {
		calls++
		return nil
	}

	err := RetryWithBackoff(context.Background(), embed, 3, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "should succeed on first call")
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	calls := 0
	embed := func() error {
		calls++
		if calls < 3 {
			return errEmbedServiceDown
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), embed, 5, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "should succeed once the service recovers")
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	calls := 0
	embed := func() error {
		calls++
		return errEmbedServiceDown
	}

	err := RetryWithBackoff(context.Background(), embed, 3, 10*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, errEmbedServiceDown, err, "should return the last attempt's error")
	assert.Equal(t, 3, calls, "should attempt exactly maxAttempts times")
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	embed := func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errEmbedServiceDown
	}

	err := RetryWithBackoff(ctx, embed, 10, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, 2, "should stop retrying once canceled")
}

func TestRetryWithBackoff_ContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	embed := func() error {
		calls++
		time.Sleep(30 * time.Millisecond) // slow embedding call
		return errEmbedServiceDown
	}

	err := RetryWithBackoff(ctx, embed, 10, 10*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.LessOrEqual(t, calls, 3, "should stop retrying on deadline")
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	calls := 0
	var delays []time.Duration
	lastTime := time.Now()

	embed := func() error {
		calls++
		if calls > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if calls < 4 {
			return errEmbedServiceDown
		}
		return nil
	}

	err := RetryWithBackoff(context.Background(), embed, 5, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4, calls)

	// Each delay doubles the previous one; allow timing slop and only
	// check the ordering.
	require.Len(t, delays, 3)
	assert.Greater(t, delays[1], delays[0])
	assert.Greater(t, delays[2], delays[1])
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	for _, maxAttempts := range []int{0, -1} {
		calls := 0
		embed := func() error {
			calls++
			return errEmbedServiceDown
		}

		err := RetryWithBackoff(context.Background(), embed, maxAttempts, 10*time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts, "maxAttempts %d", maxAttempts)
		assert.Equal(t, 0, calls, "should not call the operation")
	}
}

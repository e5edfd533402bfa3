package geocode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_FirstAcquireDoesNotWait(t *testing.T) {
	th := NewThrottle(time.Hour)

	start := time.Now()
	require.NoError(t, th.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottle_WaitsAfterRelease(t *testing.T) {
	const interval = 30 * time.Millisecond
	th := NewThrottle(interval)

	require.NoError(t, th.Acquire(context.Background()))
	th.Release()

	start := time.Now()
	require.NoError(t, th.Acquire(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), interval-time.Millisecond)
}

func TestThrottle_NoWaitOnceIntervalElapsed(t *testing.T) {
	th := NewThrottle(10 * time.Second)
	th.now = func() time.Time { return time.Unix(1000, 0) }
	th.Release()
	th.now = func() time.Time { return time.Unix(1011, 0) }

	start := time.Now()
	require.NoError(t, th.Acquire(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottle_CanceledWhileWaiting(t *testing.T) {
	th := NewThrottle(time.Hour)
	th.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := th.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThrottle_NegativeInterval(t *testing.T) {
	th := NewThrottle(-time.Second)
	assert.Equal(t, time.Duration(0), th.Interval())
}

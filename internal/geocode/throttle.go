package geocode

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval is the minimum pause between two provider requests.
const DefaultInterval = time.Second

// Throttle enforces a minimum interval between the end of one request and
// the start of the next. Callers bracket every request with Acquire and
// Release, including requests that fail.
type Throttle struct {
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewThrottle(interval time.Duration) *Throttle {
	if interval < 0 {
		interval = 0
	}
	return &Throttle{interval: interval, now: time.Now}
}

func (t *Throttle) Interval() time.Duration { return t.interval }

// Acquire blocks until the interval has elapsed since the last Release, or
// until ctx is done.
func (t *Throttle) Acquire(ctx context.Context) error {
	t.mu.Lock()
	last := t.last
	t.mu.Unlock()

	if last.IsZero() {
		return ctx.Err()
	}
	wait := t.interval - t.now().Sub(last)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Release marks the end of a request.
func (t *Throttle) Release() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}

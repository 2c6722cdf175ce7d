package llm

import (
	"context"
	"sync"
	"time"
)

// quotaLimiter spaces generative calls to stay under a provider quota. It
// reserves a slot per call and sleeps until that slot, so it needs no
// background goroutine. A nil limiter admits every call.
type quotaLimiter struct {
	interval time.Duration
	burst    int
	now      func() time.Time

	mu     sync.Mutex
	next   time.Time // earliest time the bucket is back to one free slot
	closed chan struct{}
	once   sync.Once
}

func newQuotaLimiter(rps float64, burst int) *quotaLimiter {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Duration(float64(time.Second) / rps)
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &quotaLimiter{
		interval: interval,
		burst:    burst,
		now:      time.Now,
		closed:   make(chan struct{}),
	}
}

// reserve books the next slot and returns how long the caller must wait.
func (l *quotaLimiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	// Unused capacity accumulates up to burst slots.
	floor := now.Add(-time.Duration(l.burst-1) * l.interval)
	if l.next.Before(floor) {
		l.next = floor
	}
	at := l.next
	l.next = l.next.Add(l.interval)
	if at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// cancelReservation hands back a slot the caller gave up on.
func (l *quotaLimiter) cancelReservation() {
	l.mu.Lock()
	l.next = l.next.Add(-l.interval)
	l.mu.Unlock()
}

// Acquire waits for a slot, the context, or Stop, whichever comes first.
func (l *quotaLimiter) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-l.closed:
		return context.Canceled
	default:
	}
	wait := l.reserve()
	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		l.cancelReservation()
		return ctx.Err()
	case <-l.closed:
		return context.Canceled
	}
}

// Stop wakes every waiter with context.Canceled. Safe to call twice.
func (l *quotaLimiter) Stop() {
	if l == nil {
		return
	}
	l.once.Do(func() { close(l.closed) })
}

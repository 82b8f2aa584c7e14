package resilience

import (
	"sync"
	"time"
)

// Limiter admits up to limit calls per sliding one-second window. Admission is
// fail-fast: a call over quota is rejected immediately, never queued. The
// sliding window avoids the burst-at-the-boundary problem of fixed buckets.
type Limiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	timestamps []time.Time
	clock      func() time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock injects a clock for window tests.
func WithLimiterClock(clock func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewLimiter creates a limiter admitting perSecond calls per second.
func NewLimiter(perSecond int, opts ...LimiterOption) *Limiter {
	if perSecond <= 0 {
		perSecond = 10
	}
	l := &Limiter{
		limit:  perSecond,
		window: time.Second,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Allow admits the call if the window has quota left, recording it on success.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	l.cleanup(now)

	if len(l.timestamps) >= l.limit {
		return false
	}
	l.timestamps = append(l.timestamps, now)
	return true
}

// cleanup drops timestamps that have slid out of the window.
// Must be called while holding l.mu.
func (l *Limiter) cleanup(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for ; i < len(l.timestamps); i++ {
		if l.timestamps[i].After(cutoff) {
			break
		}
	}
	l.timestamps = l.timestamps[i:]
}

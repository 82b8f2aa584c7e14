// Package resilience holds the explicit policy objects composed around every
// upstream call: a circuit breaker per operation class and a fail-fast
// admission limiter. Keeping them as plain structs makes the policy chain
// visible and testable at the call site.
package resilience

import (
	"sync"
	"time"
)

// State is the circuit position for one dependency.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker protects one operation class against a failing dependency. After
// the consecutive-failure threshold is crossed it opens and short-circuits
// every call for the cooldown window; once the cooldown elapses exactly one
// probe is admitted (half-open). The probe's outcome decides between closing
// and re-opening.
//
// State is process-wide per operation class and shared by all concurrent
// requests. Each breaker owns its own lock, so unrelated operation classes
// never serialize on each other; critical sections are a few field updates.
type Breaker struct {
	mu sync.Mutex

	threshold int
	cooldown  time.Duration
	clock     func() time.Time

	state    State
	failures int
	openedAt time.Time
}

// BreakerOption configures a Breaker.
type BreakerOption func(*Breaker)

// WithBreakerClock injects a clock for cooldown tests.
func WithBreakerClock(clock func() time.Time) BreakerOption {
	return func(b *Breaker) {
		if clock != nil {
			b.clock = clock
		}
	}
}

// NewBreaker creates a breaker.
// threshold: consecutive failures required to open the circuit.
// cooldown: how long to stay open before admitting a probe.
func NewBreaker(threshold int, cooldown time.Duration, opts ...BreakerOption) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	b := &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		clock:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Allow reports whether a call may proceed. While open it returns false
// without any I/O; after the cooldown it admits exactly one probe and holds
// every other caller out until the probe resolves.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		// A probe is already in flight.
		return false
	default: // StateOpen
		if b.clock().Sub(b.openedAt) >= b.cooldown {
			b.state = StateHalfOpen
			return true
		}
		return false
	}
}

// RecordSuccess closes the circuit and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// RecordFailure counts a failure, opening the circuit at the threshold. A
// failed half-open probe re-opens immediately for a full cooldown.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = b.clock()
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = b.clock()
	}
}

// State returns the current circuit position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

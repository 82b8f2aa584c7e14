package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryList is an in-memory revocation set for tests and single-instance
// deployments. Entries expire lazily on read.
type MemoryList struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   func() time.Time
}

// MemoryListOption configures a MemoryList.
type MemoryListOption func(*MemoryList)

// WithClock injects a clock for expiry tests.
func WithClock(clock func() time.Time) MemoryListOption {
	return func(l *MemoryList) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewMemoryList(opts ...MemoryListOption) *MemoryList {
	l := &MemoryList{
		entries: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *MemoryList) Revoke(_ context.Context, credential string, ttl time.Duration) error {
	if credential == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[credential] = l.clock().Add(ttl)
	return nil
}

func (l *MemoryList) IsRevoked(_ context.Context, credential string) (bool, error) {
	if credential == "" {
		return false, nil
	}
	l.mu.RLock()
	expiresAt, ok := l.entries[credential]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if l.clock().After(expiresAt) {
		l.mu.Lock()
		delete(l.entries, credential)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}

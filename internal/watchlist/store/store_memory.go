// Package store provides the watchlist persistence backends.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"hoopwatch/internal/watchlist"
	"hoopwatch/pkg/platform/sentinel"
)

type entryKey struct {
	ownerID    string
	subjectKey string
}

// Memory keeps entries in a map. It backs tests and Postgres-less deployments.
type Memory struct {
	mu      sync.RWMutex
	entries map[entryKey]watchlist.Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[entryKey]watchlist.Entry)}
}

func (m *Memory) Add(_ context.Context, entry watchlist.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{ownerID: entry.OwnerID, subjectKey: entry.SubjectKey}
	if _, exists := m.entries[key]; exists {
		return sentinel.ErrConflict
	}
	m.entries[key] = entry
	return nil
}

func (m *Memory) Remove(_ context.Context, ownerID, subjectKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{ownerID: ownerID, subjectKey: subjectKey}
	if _, exists := m.entries[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(m.entries, key)
	return nil
}

func (m *Memory) Contains(_ context.Context, ownerID, subjectKey string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.entries[entryKey{ownerID: ownerID, subjectKey: subjectKey}]
	return exists, nil
}

func (m *Memory) List(_ context.Context, ownerID string) ([]watchlist.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]watchlist.Entry, 0)
	for key, entry := range m.entries {
		if key.ownerID == ownerID {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].SubjectKey < entries[j].SubjectKey
		}
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

func (m *Memory) UpdateLastRefreshed(_ context.Context, ownerID, subjectKey string, refreshedAt time.Time, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{ownerID: ownerID, subjectKey: subjectKey}
	entry, exists := m.entries[key]
	if !exists {
		return sentinel.ErrNotFound
	}

	cutoff := refreshedAt.Add(-window)
	if entry.LastRefreshedAt != nil && !entry.LastRefreshedAt.Before(cutoff) {
		return nil
	}

	stamped := refreshedAt
	entry.LastRefreshedAt = &stamped
	m.entries[key] = entry
	return nil
}

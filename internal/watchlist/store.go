package watchlist

import (
	"context"
	"time"
)

// Store persists watchlist entries. Implementations return
// sentinel.ErrConflict when adding a (owner, subject) pair that already
// exists and sentinel.ErrNotFound when removing one that does not.
type Store interface {
	Add(ctx context.Context, entry Entry) error
	Remove(ctx context.Context, ownerID, subjectKey string) error
	Contains(ctx context.Context, ownerID, subjectKey string) (bool, error)
	List(ctx context.Context, ownerID string) ([]Entry, error)

	// UpdateLastRefreshed stamps refreshedAt on the entry only when its
	// previous stamp is absent or older than refreshedAt minus window. The
	// check and write are a single atomic operation.
	UpdateLastRefreshed(ctx context.Context, ownerID, subjectKey string, refreshedAt time.Time, window time.Duration) error
}

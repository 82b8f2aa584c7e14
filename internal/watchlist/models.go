package watchlist

import (
	"time"

	"hoopwatch/internal/provider"
)

// Entry is one tracked player on an owner's watchlist.
type Entry struct {
	ID              string     `json:"id"`
	OwnerID         string     `json:"ownerId"`
	SubjectKey      string     `json:"subjectKey"`
	AddedAt         time.Time  `json:"addedAt"`
	LastRefreshedAt *time.Time `json:"lastRefreshedAt,omitempty"`
}

// DetailedEntry pairs an entry with its current season averages. Stats is nil
// when the enrichment branch failed or timed out for that player.
type DetailedEntry struct {
	Entry
	Stats *provider.PlayerStats `json:"stats,omitempty"`
}

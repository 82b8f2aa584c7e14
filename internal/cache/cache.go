// Package cache is the tiered cache-aside layer. Every category carries its
// own TTL tier; aggregate watchlist views are additionally evicted eagerly
// when the underlying watchlist mutates, so their TTL is only a backstop.
package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hoopwatch/internal/platform/config"
)

// Category names a cache tier. The values double as Redis key segments.
type Category string

const (
	// CategoryIdentity holds player identity records; day-scale TTL, the
	// data rarely changes.
	CategoryIdentity Category = "player_info"
	// CategoryStats holds season averages; hour-scale TTL, moves after games.
	CategoryStats Category = "player_stats"
	// CategoryHistory holds game logs, the most volatile tier.
	CategoryHistory Category = "game_logs"
	// CategoryTrending holds the curated headline-player list.
	CategoryTrending Category = "trending_players"
	// CategoryWatchlist holds per-owner entry lists (aggregate view).
	CategoryWatchlist Category = "watchlist"
	// CategoryDetails holds per-owner detailed views (aggregate view).
	CategoryDetails Category = "watchlist_details"
)

var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoopwatch_cache_hits_total",
		Help: "Cache hits by category",
	}, []string{"category"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoopwatch_cache_misses_total",
		Help: "Cache misses by category",
	}, []string{"category"})
)

// Cache is the tiered store. Get reports (found, error); a backend outage is
// an error the caller treats as a miss, never as stale data. Values are
// JSON-encoded by the implementation.
type Cache interface {
	Get(ctx context.Context, category Category, key string, dest any) (bool, error)
	Put(ctx context.Context, category Category, key string, value any) error
	Evict(ctx context.Context, category Category, key string) error
}

// TTLs maps categories to their tier duration.
type TTLs map[Category]time.Duration

// TTLsFromConfig expands the config knobs into the category table.
func TTLsFromConfig(cfg config.CacheConfig) TTLs {
	return TTLs{
		CategoryIdentity:  cfg.IdentityTTL,
		CategoryStats:     cfg.StatsTTL,
		CategoryHistory:   cfg.HistoryTTL,
		CategoryTrending:  cfg.TrendingTTL,
		CategoryWatchlist: cfg.AggregateTTL,
		CategoryDetails:   cfg.AggregateTTL,
	}
}

// ttlFor falls back to the shortest sane tier for unknown categories rather
// than caching forever.
func (t TTLs) ttlFor(category Category) time.Duration {
	if ttl, ok := t[category]; ok && ttl > 0 {
		return ttl
	}
	return time.Minute
}

func recordHit(category Category) {
	cacheHitsTotal.WithLabelValues(string(category)).Inc()
}

func recordMiss(category Category) {
	cacheMissesTotal.WithLabelValues(string(category)).Inc()
}

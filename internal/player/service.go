// Package player exposes cached read access to player records. Each read runs
// cache-aside over the resilient upstream gateway: a cache error counts as a
// miss, and degraded (nil) upstream results are never written back so a
// transient outage cannot poison a tier for its whole TTL.
package player

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"hoopwatch/internal/cache"
	"hoopwatch/internal/provider"
	"hoopwatch/pkg/platform/sentinel"
)

// trendingNames is the curated headline list served by Trending. The upstream
// exposes no popularity signal, so the set is fixed.
var trendingNames = []string{
	"LeBron James",
	"Stephen Curry",
	"Kevin Durant",
	"Nikola Jokic",
	"Luka Doncic",
	"Giannis Antetokounmpo",
	"Anthony Davis",
	"Anthony Edwards",
	"Cade Cunningham",
}

const trendingCacheKey = "top"

// Fetcher is the upstream read surface the service composes over.
type Fetcher interface {
	FetchIdentity(ctx context.Context, name string) (*provider.PlayerIdentity, error)
	FetchStats(ctx context.Context, name string) (*provider.PlayerStats, error)
	FetchHistory(ctx context.Context, name string, limit int) ([]provider.GameLogEntry, error)
}

type Service struct {
	fetcher Fetcher
	cache   cache.Cache
	logger  *slog.Logger
}

func NewService(fetcher Fetcher, c cache.Cache, logger *slog.Logger) *Service {
	return &Service{fetcher: fetcher, cache: c, logger: logger}
}

// GetIdentity returns the player's identity record, or nil when the upstream
// is degraded and no cached copy exists.
func (s *Service) GetIdentity(ctx context.Context, name string) (*provider.PlayerIdentity, error) {
	key := cacheKey(name)

	var cached provider.PlayerIdentity
	if s.lookup(ctx, cache.CategoryIdentity, key, &cached) {
		return &cached, nil
	}

	identity, err := s.fetcher.FetchIdentity(ctx, name)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		s.store(ctx, cache.CategoryIdentity, key, identity)
	}
	return identity, nil
}

// GetStats returns the player's current season averages, or nil when the
// upstream is degraded and no cached copy exists.
func (s *Service) GetStats(ctx context.Context, name string) (*provider.PlayerStats, error) {
	key := cacheKey(name)

	var cached provider.PlayerStats
	if s.lookup(ctx, cache.CategoryStats, key, &cached) {
		return &cached, nil
	}

	stats, err := s.fetcher.FetchStats(ctx, name)
	if err != nil {
		return nil, err
	}
	if stats != nil {
		s.store(ctx, cache.CategoryStats, key, stats)
	}
	return stats, nil
}

// GetHistory returns up to limit recent game logs, most recent first.
func (s *Service) GetHistory(ctx context.Context, name string, limit int) ([]provider.GameLogEntry, error) {
	key := historyKey(name, limit)

	var cached []provider.GameLogEntry
	if s.lookup(ctx, cache.CategoryHistory, key, &cached) {
		return cached, nil
	}

	games, err := s.fetcher.FetchHistory(ctx, name, limit)
	if err != nil {
		return nil, err
	}
	if len(games) > 0 {
		s.store(ctx, cache.CategoryHistory, key, games)
	}
	return games, nil
}

// Trending returns identity records for the curated headline players, each
// resolved through the cached identity path. Names the upstream cannot
// resolve right now are skipped. The assembled list is cached in its own tier
// only when every name resolved, so a degraded list is rebuilt on the next
// request instead of being pinned for the tier's TTL.
func (s *Service) Trending(ctx context.Context) ([]provider.PlayerIdentity, error) {
	var cached []provider.PlayerIdentity
	if s.lookup(ctx, cache.CategoryTrending, trendingCacheKey, &cached) {
		return cached, nil
	}

	players := make([]provider.PlayerIdentity, 0, len(trendingNames))
	for _, name := range trendingNames {
		identity, err := s.GetIdentity(ctx, name)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if identity == nil {
			continue
		}
		players = append(players, *identity)
	}
	if len(players) == len(trendingNames) {
		s.store(ctx, cache.CategoryTrending, trendingCacheKey, players)
	}
	return players, nil
}

func (s *Service) lookup(ctx context.Context, category cache.Category, key string, dest any) bool {
	found, err := s.cache.Get(ctx, category, key, dest)
	if err != nil {
		s.logger.WarnContext(ctx, "cache read failed, treating as miss",
			"category", category,
			"key", key,
			"error", err,
		)
		return false
	}
	return found
}

func (s *Service) store(ctx context.Context, category cache.Category, key string, value any) {
	if err := s.cache.Put(ctx, category, key, value); err != nil {
		s.logger.WarnContext(ctx, "cache write failed",
			"category", category,
			"key", key,
			"error", err,
		)
	}
}

func cacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func historyKey(name string, limit int) string {
	if limit < 1 {
		limit = 1
	}
	if limit > provider.MaxHistoryLimit {
		limit = provider.MaxHistoryLimit
	}
	return cacheKey(name) + ":" + strconv.Itoa(limit)
}

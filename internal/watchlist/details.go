package watchlist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"hoopwatch/internal/cache"
	"hoopwatch/internal/provider"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/requestcontext"
)

// StatsReader supplies season averages for one player. The watchlist package
// only needs this slice of the player read service.
type StatsReader interface {
	GetStats(ctx context.Context, name string) (*provider.PlayerStats, error)
}

// Orchestrator assembles the detailed watchlist view. It fans one stats fetch
// out per entry, bounded by a concurrency limit and a per-branch timeout, and
// joins whatever arrived: a failed or slow branch degrades that single entry
// to absent stats rather than failing the aggregate.
type Orchestrator struct {
	store         Store
	cache         cache.Cache
	stats         StatsReader
	fanOutLimit   int64
	branchTimeout time.Duration
	refreshWindow time.Duration
	logger        *slog.Logger
}

func NewOrchestrator(
	store Store,
	c cache.Cache,
	stats StatsReader,
	fanOutLimit int64,
	branchTimeout time.Duration,
	refreshWindow time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	if fanOutLimit < 1 {
		fanOutLimit = 1
	}
	return &Orchestrator{
		store:         store,
		cache:         c,
		stats:         stats,
		fanOutLimit:   fanOutLimit,
		branchTimeout: branchTimeout,
		refreshWindow: refreshWindow,
		logger:        logger,
	}
}

// Details returns every entry on the owner's watchlist with stats attached
// where available.
func (o *Orchestrator) Details(ctx context.Context, ownerID string) ([]DetailedEntry, error) {
	var cached []DetailedEntry
	if found, err := o.cache.Get(ctx, cache.CategoryDetails, ownerID, &cached); err != nil {
		o.logger.WarnContext(ctx, "details cache read failed, treating as miss",
			"owner_id", ownerID,
			"error", err,
		)
	} else if found {
		return cached, nil
	}

	entries, err := o.store.List(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list watchlist", err)
	}

	results := make([]DetailedEntry, len(entries))
	for i, entry := range entries {
		results[i].Entry = entry
	}

	sem := semaphore.NewWeighted(o.fanOutLimit)
	var wg sync.WaitGroup
	for i := range results {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Request deadline hit while queued; remaining entries stay absent.
			break
		}
		wg.Add(1)
		go func(slot *DetailedEntry) {
			defer wg.Done()
			defer sem.Release(1)
			o.enrich(ctx, slot)
		}(&results[i])
	}
	wg.Wait()

	if complete(results) {
		if err := o.cache.Put(ctx, cache.CategoryDetails, ownerID, results); err != nil {
			o.logger.WarnContext(ctx, "details cache write failed",
				"owner_id", ownerID,
				"error", err,
			)
		}
	}
	return results, nil
}

// enrich fills one entry's stats under its own deadline and, on success,
// advances the entry's refresh stamp when the refresh window has elapsed.
func (o *Orchestrator) enrich(ctx context.Context, slot *DetailedEntry) {
	branchCtx, cancel := context.WithTimeout(ctx, o.branchTimeout)
	defer cancel()

	stats, err := o.stats.GetStats(branchCtx, slot.SubjectKey)
	if err != nil || stats == nil {
		o.logger.WarnContext(ctx, "stats unavailable for watchlist entry",
			"owner_id", slot.OwnerID,
			"subject", slot.SubjectKey,
			"error", err,
		)
		return
	}
	slot.Stats = stats

	o.touchIfDue(branchCtx, slot)
}

func (o *Orchestrator) touchIfDue(ctx context.Context, slot *DetailedEntry) {
	now := requestcontext.Now(ctx)
	if slot.LastRefreshedAt != nil && now.Sub(*slot.LastRefreshedAt) < o.refreshWindow {
		return
	}

	if err := o.store.UpdateLastRefreshed(ctx, slot.OwnerID, slot.SubjectKey, now, o.refreshWindow); err != nil {
		// The stamp is advisory; losing one write just means the next
		// aggregate call tries again.
		o.logger.WarnContext(ctx, "failed to stamp last refresh",
			"owner_id", slot.OwnerID,
			"subject", slot.SubjectKey,
			"error", err,
		)
		return
	}
	stamped := now
	slot.LastRefreshedAt = &stamped
}

func complete(results []DetailedEntry) bool {
	for i := range results {
		if results[i].Stats == nil {
			return false
		}
	}
	return true
}

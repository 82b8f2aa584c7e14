package watchlist_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hoopwatch/internal/cache"
	"hoopwatch/internal/platform/logger"
	"hoopwatch/internal/provider"
	"hoopwatch/internal/watchlist"
	"hoopwatch/internal/watchlist/store"
	"hoopwatch/pkg/platform/sentinel"
	"hoopwatch/pkg/requestcontext"
)

// fakeStatsReader serves canned stats per player name.
type fakeStatsReader struct {
	mu       sync.Mutex
	stats    map[string]*provider.PlayerStats
	errs     map[string]error
	calls    map[string]int
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func newFakeStatsReader() *fakeStatsReader {
	return &fakeStatsReader{
		stats: make(map[string]*provider.PlayerStats),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeStatsReader) GetStats(ctx context.Context, name string) (*provider.PlayerStats, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if current <= seen || f.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.stats[name], nil
}

type OrchestratorSuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	store *store.Memory
	cache *cache.MemoryCache
	stats *fakeStatsReader
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.store = store.NewMemory()
	s.cache = cache.NewMemoryCache(cache.TTLs{cache.CategoryDetails: 10 * time.Minute})
	s.stats = newFakeStatsReader()
}

func (s *OrchestratorSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *OrchestratorSuite) newOrchestrator(fanOut int64, branchTimeout time.Duration) *watchlist.Orchestrator {
	return watchlist.NewOrchestrator(
		s.store, s.cache, s.stats,
		fanOut, branchTimeout, 6*time.Hour, logger.Discard())
}

func (s *OrchestratorSuite) addEntry(owner, subject string) {
	s.Require().NoError(s.store.Add(s.ctx, watchlist.Entry{
		ID:         subject,
		OwnerID:    owner,
		SubjectKey: subject,
		AddedAt:    s.now,
	}))
}

func (s *OrchestratorSuite) trackPlayers(names ...string) {
	for _, name := range names {
		s.addEntry("owner-1", name)
		s.stats.stats[name] = &provider.PlayerStats{Season: "2024-25", PointsPerGame: 20}
	}
}

// TestPartialFailure verifies one failing branch degrades only its own entry.
func (s *OrchestratorSuite) TestPartialFailure() {
	s.trackPlayers("LeBron James", "Luka Doncic", "Nikola Jokic", "Jayson Tatum", "Stephen Curry")
	s.stats.errs["Nikola Jokic"] = sentinel.ErrUnavailable

	detailed, err := s.newOrchestrator(5, time.Second).Details(s.ctx, "owner-1")
	s.Require().NoError(err, "a branch failure must not fail the aggregate")
	s.Require().Len(detailed, 5)

	populated := 0
	for _, d := range detailed {
		if d.SubjectKey == "Nikola Jokic" {
			s.Nil(d.Stats, "the failing branch degrades to absent stats")
			continue
		}
		s.Require().NotNil(d.Stats, "sibling branches must be unaffected")
		populated++
	}
	s.Equal(4, populated)
}

// TestRefreshStamping verifies the persisted refresh clock: stamped on the
// first successful fetch, untouched within the window.
func (s *OrchestratorSuite) TestRefreshStamping() {
	s.Run("first aggregate call stamps never-refreshed entries", func() {
		s.trackPlayers("LeBron James")

		t1 := s.now.Add(time.Minute)
		ctx := requestcontext.WithTime(context.Background(), t1)

		detailed, err := s.newOrchestrator(5, time.Second).Details(ctx, "owner-1")
		s.Require().NoError(err)
		s.Require().Len(detailed, 1)
		s.Require().NotNil(detailed[0].LastRefreshedAt)
		s.Equal(t1, *detailed[0].LastRefreshedAt)

		entries, err := s.store.List(ctx, "owner-1")
		s.Require().NoError(err)
		s.Require().NotNil(entries[0].LastRefreshedAt, "the stamp is persisted, not just decorated")
		s.Equal(t1, *entries[0].LastRefreshedAt)
	})

	s.Run("a repeat call within the window leaves the stamp alone", func() {
		s.trackPlayers("LeBron James")
		orchestrator := s.newOrchestrator(5, time.Second)

		t1 := s.now.Add(time.Minute)
		_, err := orchestrator.Details(requestcontext.WithTime(context.Background(), t1), "owner-1")
		s.Require().NoError(err)

		s.Require().NoError(s.cache.Evict(s.ctx, cache.CategoryDetails, "owner-1"))

		t2 := t1.Add(time.Hour)
		_, err = orchestrator.Details(requestcontext.WithTime(context.Background(), t2), "owner-1")
		s.Require().NoError(err)

		entries, err := s.store.List(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.Equal(t1, *entries[0].LastRefreshedAt, "within the window the stamp must not move")
	})

	s.Run("a call past the window advances the stamp", func() {
		s.trackPlayers("LeBron James")
		orchestrator := s.newOrchestrator(5, time.Second)

		t1 := s.now.Add(time.Minute)
		_, err := orchestrator.Details(requestcontext.WithTime(context.Background(), t1), "owner-1")
		s.Require().NoError(err)

		s.Require().NoError(s.cache.Evict(s.ctx, cache.CategoryDetails, "owner-1"))

		t2 := t1.Add(7 * time.Hour)
		_, err = orchestrator.Details(requestcontext.WithTime(context.Background(), t2), "owner-1")
		s.Require().NoError(err)

		entries, err := s.store.List(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.Equal(t2, *entries[0].LastRefreshedAt)
	})

	s.Run("a failed branch does not stamp its entry", func() {
		s.addEntry("owner-1", "LeBron James")
		s.stats.errs["LeBron James"] = sentinel.ErrUnavailable

		detailed, err := s.newOrchestrator(5, time.Second).Details(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.Require().Len(detailed, 1)
		s.Nil(detailed[0].LastRefreshedAt)
	})
}

// TestAggregateCaching verifies complete views are cached and degraded views
// are not.
func (s *OrchestratorSuite) TestAggregateCaching() {
	s.Run("a complete view is served from cache on repeat", func() {
		s.trackPlayers("LeBron James", "Luka Doncic")
		orchestrator := s.newOrchestrator(5, time.Second)

		_, err := orchestrator.Details(s.ctx, "owner-1")
		s.Require().NoError(err)
		_, err = orchestrator.Details(s.ctx, "owner-1")
		s.Require().NoError(err)

		s.Equal(1, s.stats.calls["LeBron James"])
		s.Equal(1, s.stats.calls["Luka Doncic"])
	})

	s.Run("a degraded view is rebuilt on the next call", func() {
		s.trackPlayers("LeBron James")
		s.addEntry("owner-1", "Nikola Jokic")
		s.stats.errs["Nikola Jokic"] = sentinel.ErrUnavailable
		orchestrator := s.newOrchestrator(5, time.Second)

		_, err := orchestrator.Details(s.ctx, "owner-1")
		s.Require().NoError(err)

		delete(s.stats.errs, "Nikola Jokic")
		s.stats.stats["Nikola Jokic"] = &provider.PlayerStats{Season: "2024-25"}

		detailed, err := orchestrator.Details(s.ctx, "owner-1")
		s.Require().NoError(err)
		for _, d := range detailed {
			s.NotNil(d.Stats, "the recovered branch must be retried, not pinned degraded")
		}
	})
}

func (s *OrchestratorSuite) TestBoundedFanOut() {
	s.Run("concurrency never exceeds the limit", func() {
		s.trackPlayers("A", "B", "C", "D", "E", "F", "G", "H")
		s.stats.delay = 20 * time.Millisecond

		_, err := s.newOrchestrator(2, time.Second).Details(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.LessOrEqual(s.stats.maxSeen.Load(), int32(2))
	})

	s.Run("a slow branch times out instead of hanging the aggregate", func() {
		s.trackPlayers("LeBron James", "Luka Doncic")
		s.stats.delay = 200 * time.Millisecond

		start := time.Now()
		detailed, err := s.newOrchestrator(5, 50*time.Millisecond).Details(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.Less(time.Since(start), 150*time.Millisecond)

		for _, d := range detailed {
			s.Nil(d.Stats, "timed-out branches degrade to absent")
		}
	})

	s.Run("empty watchlist aggregates to an empty view", func() {
		detailed, err := s.newOrchestrator(5, time.Second).Details(s.ctx, "owner-1")
		s.Require().NoError(err)
		s.NotNil(detailed)
		s.Empty(detailed)
	})
}

// Package watchlist manages per-owner rosters of tracked players and the
// aggregate views built on top of them.
package watchlist

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"hoopwatch/internal/cache"
	"hoopwatch/internal/events"
	dErrors "hoopwatch/pkg/domain-errors"
	"hoopwatch/pkg/platform/sentinel"
	"hoopwatch/pkg/requestcontext"
)

// Service runs watchlist mutations and membership reads. Every mutation
// evicts the owner's aggregate cache tiers before publishing its event, so a
// subscriber reacting to the event never reads a pre-mutation snapshot.
type Service struct {
	store     Store
	cache     cache.Cache
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(store Store, c cache.Cache, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, cache: c, publisher: publisher, logger: logger}
}

// Add puts subjectKey on ownerID's watchlist. Returns a Conflict error when
// the player is already tracked.
func (s *Service) Add(ctx context.Context, ownerID, subjectKey string) (Entry, error) {
	if ownerID == "" || subjectKey == "" {
		return Entry{}, dErrors.New(dErrors.CodeBadRequest, "owner and player are required")
	}

	entry := Entry{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		SubjectKey: subjectKey,
		AddedAt:    requestcontext.Now(ctx),
	}

	if err := s.store.Add(ctx, entry); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Entry{}, dErrors.New(dErrors.CodeConflict, "player already on watchlist")
		}
		return Entry{}, dErrors.Wrap(dErrors.CodeInternal, "failed to add watchlist entry", err)
	}

	s.evictAggregates(ctx, ownerID)
	s.publisher.Publish(ctx, events.NewMutationEvent(
		events.TypeAdded, ownerID, subjectKey, entry.AddedAt, requestcontext.RequestID(ctx)))

	s.logger.InfoContext(ctx, "player added to watchlist",
		"owner_id", ownerID,
		"subject", subjectKey,
	)
	return entry, nil
}

// Remove takes subjectKey off ownerID's watchlist. Returns a NotFound error
// when the player is not tracked.
func (s *Service) Remove(ctx context.Context, ownerID, subjectKey string) error {
	if err := s.store.Remove(ctx, ownerID, subjectKey); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "player not on watchlist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "failed to remove watchlist entry", err)
	}

	s.evictAggregates(ctx, ownerID)
	s.publisher.Publish(ctx, events.NewMutationEvent(
		events.TypeRemoved, ownerID, subjectKey, requestcontext.Now(ctx), requestcontext.RequestID(ctx)))

	s.logger.InfoContext(ctx, "player removed from watchlist",
		"owner_id", ownerID,
		"subject", subjectKey,
	)
	return nil
}

// Contains reports membership. It never fails: a store error is logged and
// reported as absent, since callers use this for a yes/no badge and a denial
// is the safe degraded answer.
func (s *Service) Contains(ctx context.Context, ownerID, subjectKey string) bool {
	tracked, err := s.store.Contains(ctx, ownerID, subjectKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "membership check failed, reporting absent",
			"owner_id", ownerID,
			"subject", subjectKey,
			"error", err,
		)
		return false
	}
	return tracked
}

// List returns the owner's entries, oldest first, serving the aggregate cache
// tier when it holds a fresh copy.
func (s *Service) List(ctx context.Context, ownerID string) ([]Entry, error) {
	var cached []Entry
	if found, err := s.cache.Get(ctx, cache.CategoryWatchlist, ownerID, &cached); err != nil {
		s.logger.WarnContext(ctx, "watchlist cache read failed, treating as miss",
			"owner_id", ownerID,
			"error", err,
		)
	} else if found {
		return cached, nil
	}

	entries, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "failed to list watchlist", err)
	}

	if err := s.cache.Put(ctx, cache.CategoryWatchlist, ownerID, entries); err != nil {
		s.logger.WarnContext(ctx, "watchlist cache write failed",
			"owner_id", ownerID,
			"error", err,
		)
	}
	return entries, nil
}

func (s *Service) evictAggregates(ctx context.Context, ownerID string) {
	for _, category := range []cache.Category{cache.CategoryWatchlist, cache.CategoryDetails} {
		if err := s.cache.Evict(ctx, category, ownerID); err != nil {
			s.logger.WarnContext(ctx, "aggregate cache eviction failed",
				"category", category,
				"owner_id", ownerID,
				"error", err,
			)
		}
	}
}

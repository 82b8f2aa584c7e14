package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hoopwatch/internal/platform/logger"
)

type SubscriberSuite struct {
	suite.Suite
	ctx context.Context
	sub *Subscriber
}

func TestSubscriberSuite(t *testing.T) {
	suite.Run(t, new(SubscriberSuite))
}

func (s *SubscriberSuite) SetupTest() {
	s.ctx = context.Background()
	s.sub = NewSubscriber(nil, "watchlist-events", logger.Discard())
}

func (s *SubscriberSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *SubscriberSuite) payload(event MutationEvent) string {
	raw, err := json.Marshal(event)
	s.Require().NoError(err)
	return string(raw)
}

// TestDispatch verifies routing by event type and the isolation of handler
// failures.
func (s *SubscriberSuite) TestDispatch() {
	s.Run("routes to handlers registered for the type", func() {
		var got []MutationEvent
		s.sub.On(TypeAdded, func(_ context.Context, event MutationEvent) error {
			got = append(got, event)
			return nil
		})

		event := NewMutationEvent(TypeAdded, "owner-1", "LeBron James", time.Now(), "corr-1")
		s.sub.dispatch(s.ctx, s.payload(event))

		s.Require().Len(got, 1)
		s.Equal("owner-1", got[0].OwnerID)
		s.Equal("LeBron James", got[0].SubjectKey)
		s.Equal("corr-1", got[0].CorrelationID)
	})

	s.Run("drops events with an unknown type", func() {
		var called bool
		s.sub.On(TypeAdded, func(context.Context, MutationEvent) error {
			called = true
			return nil
		})

		s.sub.dispatch(s.ctx, `{"type":"REPLAYED","ownerId":"owner-1"}`)
		s.False(called)
	})

	s.Run("drops malformed payloads", func() {
		s.sub.On(TypeAdded, func(context.Context, MutationEvent) error {
			s.Fail("handler must not run for malformed payloads")
			return nil
		})

		s.sub.dispatch(s.ctx, "not json")
	})

	s.Run("one handler failing does not stop the others", func() {
		var secondRan bool
		s.sub.On(TypeRemoved, func(context.Context, MutationEvent) error {
			return errors.New("boom")
		})
		s.sub.On(TypeRemoved, func(context.Context, MutationEvent) error {
			secondRan = true
			return nil
		})

		event := NewMutationEvent(TypeRemoved, "owner-1", "LeBron James", time.Now(), "")
		s.sub.dispatch(s.ctx, s.payload(event))
		s.True(secondRan)
	})

	s.Run("a panicking handler is contained", func() {
		var secondRan bool
		s.sub.On(TypeAdded, func(context.Context, MutationEvent) error {
			panic("handler bug")
		})
		s.sub.On(TypeAdded, func(context.Context, MutationEvent) error {
			secondRan = true
			return nil
		})

		event := NewMutationEvent(TypeAdded, "owner-1", "LeBron James", time.Now(), "")
		s.NotPanics(func() {
			s.sub.dispatch(s.ctx, s.payload(event))
		})
		s.True(secondRan)
	})
}

func (s *SubscriberSuite) TestCorrelationMinting() {
	event := NewMutationEvent(TypeAdded, "owner-1", "LeBron James", time.Now(), "")
	s.NotEmpty(event.CorrelationID, "a missing correlation ID is minted, not left blank")

	event = NewMutationEvent(TypeAdded, "owner-1", "LeBron James", time.Now(), "corr-9")
	s.Equal("corr-9", event.CorrelationID)
}

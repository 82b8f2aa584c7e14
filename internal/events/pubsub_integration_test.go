//go:build integration

package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hoopwatch/internal/events"
	"hoopwatch/internal/platform/logger"
	"hoopwatch/pkg/testutil/containers"
)

type PubSubSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestPubSubSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PubSubSuite))
}

func (s *PubSubSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *PubSubSuite) TestPublishReachesSubscriber() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const channel = "watchlist-events"

	var mu sync.Mutex
	var received []events.MutationEvent

	subscriber := events.NewSubscriber(s.redis.Client, channel, logger.Discard())
	subscriber.On(events.TypeAdded, func(_ context.Context, event events.MutationEvent) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event)
		return nil
	})

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = subscriber.Run(runCtx)
	}()

	// Run confirms the subscription before consuming, but give the pub/sub
	// channel a beat to register on the server side.
	time.Sleep(100 * time.Millisecond)

	publisher := events.NewRedisPublisher(s.redis.Client, channel, logger.Discard())
	event := events.NewMutationEvent(events.TypeAdded, "owner-1", "LeBron James", time.Now().UTC(), "corr-1")
	publisher.Publish(ctx, event)

	s.Require().Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 5*time.Second, 50*time.Millisecond)

	mu.Lock()
	got := received[0]
	mu.Unlock()
	s.Equal("owner-1", got.OwnerID)
	s.Equal("LeBron James", got.SubjectKey)
	s.Equal("corr-1", got.CorrelationID)

	stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.Fail("subscriber did not stop on context cancellation")
	}
}

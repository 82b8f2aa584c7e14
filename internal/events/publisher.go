package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoopwatch_events_published_total",
		Help: "Mutation events published by type",
	}, []string{"type"})

	eventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hoopwatch_events_dropped_total",
		Help: "Mutation events dropped on serialization or transport failure",
	})
)

// Publisher emits mutation events. Publish returns nothing: failures are
// logged and swallowed inside the implementation, so a broken event bus can
// never fail or roll back the mutation that triggered it.
type Publisher interface {
	Publish(ctx context.Context, event MutationEvent)
}

// RedisPublisher publishes JSON events on a single pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *slog.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, event MutationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		eventsDroppedTotal.Inc()
		p.logger.ErrorContext(ctx, "failed to serialize mutation event, dropping",
			"type", event.Type,
			"error", err,
		)
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		eventsDroppedTotal.Inc()
		p.logger.ErrorContext(ctx, "failed to publish mutation event, dropping",
			"type", event.Type,
			"channel", p.channel,
			"error", err,
		)
		return
	}

	eventsPublishedTotal.WithLabelValues(string(event.Type)).Inc()
	p.logger.InfoContext(ctx, "published mutation event",
		"type", event.Type,
		"owner_id", event.OwnerID,
		"subject", event.SubjectKey,
		"correlation_id", event.CorrelationID,
	)
}

// Discard drops every event. Used when no event bus is configured.
type Discard struct{}

func (Discard) Publish(context.Context, MutationEvent) {}

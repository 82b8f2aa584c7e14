package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Handler reacts to a single mutation event. Handlers run sequentially per
// message; a handler error or panic is logged and never stops dispatch.
type Handler func(ctx context.Context, event MutationEvent) error

// Subscriber consumes mutation events from a pub/sub channel and fans them
// out to handlers registered per event type.
type Subscriber struct {
	client   *redis.Client
	channel  string
	handlers map[Type][]Handler
	logger   *slog.Logger
}

func NewSubscriber(client *redis.Client, channel string, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		client:   client,
		channel:  channel,
		handlers: make(map[Type][]Handler),
		logger:   logger,
	}
}

// On registers a handler for the given event type. Not safe to call after Run
// has started.
func (s *Subscriber) On(t Type, h Handler) {
	s.handlers[t] = append(s.handlers[t], h)
}

// Run blocks consuming events until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	sub := s.client.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "event subscriber started", "channel", s.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("subscription channel closed")
			}
			s.dispatch(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, payload string) {
	var event MutationEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed event payload", "error", err)
		return
	}

	handlers, ok := s.handlers[event.Type]
	if !ok {
		s.logger.WarnContext(ctx, "discarding event with unknown type", "type", event.Type)
		return
	}

	for _, h := range handlers {
		s.invoke(ctx, h, event)
	}
}

func (s *Subscriber) invoke(ctx context.Context, h Handler, event MutationEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "event handler panicked",
				"type", event.Type,
				"panic", r,
			)
		}
	}()

	if err := h(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event handler failed",
			"type", event.Type,
			"correlation_id", event.CorrelationID,
			"error", err,
		)
	}
}

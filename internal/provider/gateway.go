package provider

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hoopwatch/internal/platform/config"
	"hoopwatch/internal/provider/resilience"
	"hoopwatch/pkg/platform/sentinel"
)

var (
	upstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hoopwatch_upstream_calls_total",
		Help: "Upstream provider calls by operation class and outcome",
	}, []string{"operation", "outcome"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hoopwatch_upstream_breaker_open",
		Help: "1 when the circuit for an operation class is open",
	}, []string{"operation"})
)

// Operation classes. Each gets its own circuit; the admission quota is shared
// because the upstream rate-limits the whole API key, not individual routes.
const (
	opIdentity = "identity"
	opStats    = "stats"
	opHistory  = "history"
)

// Gateway shields callers from upstream failures. Every operation runs the
// same explicit policy chain: admission limiter, then circuit breaker, then
// the actual call. A shed or short-circuited call yields the operation's
// fallback (nil record, empty list) with a nil error so read paths degrade
// instead of failing; only NotFound crosses as an error, since it is a fact
// about the catalog rather than a failure.
type Gateway struct {
	client   Client
	limiter  *resilience.Limiter
	breakers map[string]*resilience.Breaker
	logger   *slog.Logger
}

func NewGateway(client Client, cfg config.ResilienceConfig, logger *slog.Logger) *Gateway {
	breakers := make(map[string]*resilience.Breaker, 3)
	for _, op := range []string{opIdentity, opStats, opHistory} {
		breakers[op] = resilience.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown)
	}
	return &Gateway{
		client:   client,
		limiter:  resilience.NewLimiter(cfg.RatePerSecond),
		breakers: breakers,
		logger:   logger,
	}
}

func (g *Gateway) FetchIdentity(ctx context.Context, name string) (*PlayerIdentity, error) {
	var identity *PlayerIdentity
	err := g.call(ctx, opIdentity, func() error {
		var err error
		identity, err = g.client.FetchIdentity(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func (g *Gateway) FetchStats(ctx context.Context, name string) (*PlayerStats, error) {
	var stats *PlayerStats
	err := g.call(ctx, opStats, func() error {
		var err error
		stats, err = g.client.FetchStats(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (g *Gateway) FetchHistory(ctx context.Context, name string, limit int) ([]GameLogEntry, error) {
	var games []GameLogEntry
	err := g.call(ctx, opHistory, func() error {
		var err error
		games, err = g.client.FetchHistory(ctx, name, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []GameLogEntry{}
	}
	return games, nil
}

// call runs one upstream operation through the policy chain. The closure
// leaves its result behind via capture; call's only job is deciding whether
// the attempt happens and how its outcome feeds the breaker.
//
// Returns nil after a shed or short-circuited attempt: the captured result
// keeps its zero value, which is the operation's fallback.
func (g *Gateway) call(ctx context.Context, operation string, attempt func() error) error {
	breaker := g.breakers[operation]

	if !g.limiter.Allow() {
		upstreamCallsTotal.WithLabelValues(operation, "rate_limited").Inc()
		g.logger.WarnContext(ctx, "upstream admission rejected", "operation", operation)
		return nil
	}

	if !breaker.Allow() {
		upstreamCallsTotal.WithLabelValues(operation, "short_circuit").Inc()
		breakerState.WithLabelValues(operation).Set(1)
		return nil
	}

	// A panic in the attempt must still resolve the breaker's probe slot, or
	// a half-open circuit would reject every later call for this operation.
	resolved := false
	defer func() {
		if resolved {
			return
		}
		breaker.RecordFailure()
		if breaker.State() == resilience.StateOpen {
			breakerState.WithLabelValues(operation).Set(1)
		}
		upstreamCallsTotal.WithLabelValues(operation, "panic").Inc()
	}()

	err := attempt()
	resolved = true
	switch {
	case err == nil:
		breaker.RecordSuccess()
		breakerState.WithLabelValues(operation).Set(0)
		upstreamCallsTotal.WithLabelValues(operation, "success").Inc()
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		// The upstream answered; an unknown player is not a dependency failure.
		breaker.RecordSuccess()
		breakerState.WithLabelValues(operation).Set(0)
		upstreamCallsTotal.WithLabelValues(operation, "not_found").Inc()
		return err
	default:
		breaker.RecordFailure()
		if breaker.State() == resilience.StateOpen {
			breakerState.WithLabelValues(operation).Set(1)
		}
		upstreamCallsTotal.WithLabelValues(operation, "failure").Inc()
		g.logger.ErrorContext(ctx, "upstream call failed",
			"operation", operation,
			"error", err,
			"circuit", breaker.State().String(),
		)
		return nil
	}
}

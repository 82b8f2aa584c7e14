// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoopwatch/internal/auth"
	"hoopwatch/internal/auth/authority"
	authhandler "hoopwatch/internal/auth/handler"
	"hoopwatch/internal/auth/store/revocation"
	"hoopwatch/internal/cache"
	"hoopwatch/internal/events"
	"hoopwatch/internal/platform/config"
	"hoopwatch/internal/platform/httpserver"
	"hoopwatch/internal/platform/logger"
	"hoopwatch/internal/platform/metrics"
	"hoopwatch/internal/platform/postgres"
	"hoopwatch/internal/platform/redis"
	"hoopwatch/internal/player"
	playerhandler "hoopwatch/internal/player/handler"
	"hoopwatch/internal/provider"
	httptransport "hoopwatch/internal/transport/http"
	"hoopwatch/internal/watchlist"
	watchlisthandler "hoopwatch/internal/watchlist/handler"
	watchliststore "hoopwatch/internal/watchlist/store"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared infrastructure. Redis and Postgres are optional: when absent the
	// service runs on in-memory backends, which suits local development.
	redisClient, err := redis.New(cfg.Redis())
	if err != nil {
		log.Warn("redis unavailable, using in-memory backends", "error", err)
	} else if redisClient == nil {
		log.Warn("redis not configured, using in-memory backends")
	}

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to open postgres", "error", err)
		os.Exit(1)
	}

	health := map[string]httptransport.HealthChecker{}

	var tiered cache.Cache
	var revocations auth.RevocationList
	var publisher events.Publisher = events.Discard{}
	ttls := cache.TTLsFromConfig(cfg.Cache)
	if redisClient != nil {
		tiered = cache.NewRedisCache(redisClient.Client, ttls)
		revocations = revocation.NewRedisList(redisClient.Client)
		publisher = events.NewRedisPublisher(redisClient.Client, cfg.EventChannel, log)
		health["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(pingCtx)
		}
	} else {
		tiered = cache.NewMemoryCache(ttls)
		revocations = revocation.NewMemoryList()
	}

	var store watchlist.Store
	if db != nil {
		if err := watchliststore.EnsureSchema(ctx, db); err != nil {
			log.Error("failed to prepare watchlist schema", "error", err)
			os.Exit(1)
		}
		store = watchliststore.NewPostgres(db)
		health["postgres"] = db.Ping
		defer db.Close()
	} else {
		log.Warn("postgres not configured, watchlist entries are in-memory only")
		store = watchliststore.NewMemory()
	}

	// Auth path.
	authorityClient := authority.NewHTTPClient(cfg.AuthorityURL, cfg.AuthorityTimeout)
	verifier := auth.NewVerifier(authorityClient, revocations, cfg.AuthorityTimeout, log)

	// Player read path.
	providerClient := provider.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.ProviderTimeout, log)
	gateway := provider.NewGateway(providerClient, cfg.Resilience, log)
	players := player.NewService(gateway, tiered, log)

	// Watchlist path.
	watchlists := watchlist.NewService(store, tiered, publisher, log)
	orchestrator := watchlist.NewOrchestrator(
		store, tiered, players,
		cfg.FanOutLimit, cfg.BranchTimeout, cfg.RefreshWindow, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Verifier:       verifier,
		Metrics:        metrics.New(),
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		Handlers: []httptransport.Registrar{
			authhandler.New(verifier, log),
			playerhandler.New(players, log),
			watchlisthandler.New(watchlists, orchestrator, log),
		},
		Health: health,
	})

	// Mutation event tap. Consumers are expected to tolerate lost events.
	if redisClient != nil {
		subscriber := events.NewSubscriber(redisClient.Client, cfg.EventChannel, log)
		for _, t := range []events.Type{events.TypeAdded, events.TypeRemoved} {
			subscriber.On(t, func(ctx context.Context, event events.MutationEvent) error {
				log.InfoContext(ctx, "watchlist mutation observed",
					"type", event.Type,
					"owner_id", event.OwnerID,
					"subject", event.SubjectKey,
					"correlation_id", event.CorrelationID,
				)
				return nil
			})
		}
		go func() {
			if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event subscriber stopped", "error", err)
			}
		}()
		defer redisClient.Close()
	}

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting hoopwatch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

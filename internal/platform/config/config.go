package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures the full configuration surface so main stays lean. Every
// knob has a production-sane default and an env override.
type Config struct {
	Addr string

	// Identity authority (remote token verification).
	AuthorityURL     string
	AuthorityTimeout time.Duration

	// Upstream player-data provider.
	ProviderBaseURL string
	ProviderAPIKey  string
	ProviderTimeout time.Duration

	// Shared infrastructure.
	RedisURL    string
	PostgresDSN string

	Cache      CacheConfig
	Resilience ResilienceConfig

	// Freshness window for persisted last-refresh timestamps.
	// Independent of cache TTLs.
	RefreshWindow time.Duration

	// Aggregation fan-out bounds.
	FanOutLimit   int64
	BranchTimeout time.Duration

	// Wall-clock budget for one inbound request, enforced by the router's
	// timeout middleware.
	RequestTimeout time.Duration

	EventChannel string
}

// CacheConfig holds per-category TTL tiers. Identity data barely changes,
// stats move after games, history is the most volatile, and aggregate views
// are evicted eagerly on mutation so their TTL is only a backstop.
type CacheConfig struct {
	IdentityTTL  time.Duration
	StatsTTL     time.Duration
	HistoryTTL   time.Duration
	TrendingTTL  time.Duration
	AggregateTTL time.Duration
}

// ResilienceConfig holds the circuit-breaker and rate-limiter knobs applied to
// every upstream operation class.
type ResilienceConfig struct {
	BreakerThreshold int
	BreakerCooldown  time.Duration
	RatePerSecond    int
}

// RedisConfig tunes the shared Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:             envString("HOOPWATCH_ADDR", ":8081"),
		AuthorityURL:     envString("AUTHORITY_URL", "http://security-service:8080"),
		AuthorityTimeout: envDuration("AUTHORITY_TIMEOUT", 5*time.Second),
		ProviderBaseURL:  envString("PROVIDER_BASE_URL", "http://nba-fetcher:5001"),
		ProviderAPIKey:   os.Getenv("PROVIDER_API_KEY"),
		ProviderTimeout:  envDuration("PROVIDER_TIMEOUT", 10*time.Second),
		RedisURL:         envString("REDIS_URL", "redis://localhost:6379/0"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		Cache: CacheConfig{
			IdentityTTL:  envDuration("CACHE_IDENTITY_TTL", 24*time.Hour),
			StatsTTL:     envDuration("CACHE_STATS_TTL", 6*time.Hour),
			HistoryTTL:   envDuration("CACHE_HISTORY_TTL", time.Hour),
			TrendingTTL:  envDuration("CACHE_TRENDING_TTL", 12*time.Hour),
			AggregateTTL: envDuration("CACHE_AGGREGATE_TTL", 10*time.Minute),
		},
		Resilience: ResilienceConfig{
			BreakerThreshold: envInt("BREAKER_FAILURE_THRESHOLD", 5),
			BreakerCooldown:  envDuration("BREAKER_COOLDOWN", 30*time.Second),
			RatePerSecond:    envInt("UPSTREAM_RATE_PER_SECOND", 10),
		},
		RefreshWindow:  envDuration("REFRESH_WINDOW", 6*time.Hour),
		FanOutLimit:    int64(envInt("AGGREGATION_FANOUT_LIMIT", 5)),
		BranchTimeout:  envDuration("AGGREGATION_BRANCH_TIMEOUT", 10*time.Second),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),
		EventChannel:   envString("EVENT_CHANNEL", "watchlist-events"),
	}
}

// Redis derives the Redis client tuning from the main config.
func (c Config) Redis() RedisConfig {
	return RedisConfig{
		URL:          c.RedisURL,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

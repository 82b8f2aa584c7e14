package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hoopwatch_is_credential_revoked_duration_ms",
		Help:    "Latency of credential revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for revoked credentials. Keyed by the raw credential
	// value so verification can reject before any parsing happens.
	revokedCredentialKeyPrefix = "revoked:cred:"
)

// RedisList is a Redis-backed revocation set. Entries carry a TTL equal to the
// credential's remaining validity window, so they self-expire and no cleanup
// job is needed. This is the production implementation for deployments where
// multiple instances share revocation state.
type RedisList struct {
	client *redis.Client
}

// NewRedisList constructs a Redis-backed revocation set.
func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

// Revoke adds a credential to the revocation set with TTL.
// Uses SET with expiry for atomic set-with-TTL.
func (l *RedisList) Revoke(ctx context.Context, credential string, ttl time.Duration) error {
	if credential == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	key := revokedCredentialKeyPrefix + credential
	// Store "1" as a simple marker; the key existence is what matters
	return l.client.Set(ctx, key, "1", ttl).Err()
}

// IsRevoked checks if a credential is in the revocation set.
// Returns false if the key doesn't exist (not revoked or already expired).
func (l *RedisList) IsRevoked(ctx context.Context, credential string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if credential == "" {
		return false, nil
	}
	key := revokedCredentialKeyPrefix + credential
	_, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

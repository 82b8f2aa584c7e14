//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hoopwatch/internal/auth/store/revocation"
	"hoopwatch/pkg/testutil/containers"
)

type RedisListSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	list  *revocation.RedisList
}

func TestRedisListSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisListSuite))
}

func (s *RedisListSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.list = revocation.NewRedisList(s.redis.Client)
}

func (s *RedisListSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisListSuite) TestRevocationRoundTrip() {
	ctx := context.Background()

	revoked, err := s.list.IsRevoked(ctx, "token-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.list.Revoke(ctx, "token-1", time.Minute))

	revoked, err = s.list.IsRevoked(ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *RedisListSuite) TestEntrySelfExpires() {
	ctx := context.Background()

	s.Require().NoError(s.list.Revoke(ctx, "token-1", 200*time.Millisecond))

	revoked, err := s.list.IsRevoked(ctx, "token-1")
	s.Require().NoError(err)
	s.True(revoked)

	time.Sleep(300 * time.Millisecond)

	revoked, err = s.list.IsRevoked(ctx, "token-1")
	s.Require().NoError(err)
	s.False(revoked, "redis key TTL must expire the entry without a cleanup job")
}

func (s *RedisListSuite) TestRejectsNonPositiveTTL() {
	ctx := context.Background()
	s.Error(s.list.Revoke(ctx, "token-1", 0))
	s.Error(s.list.Revoke(ctx, "token-1", -time.Second))
}

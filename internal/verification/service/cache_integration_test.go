//go:build integration

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dana/internal/platform/redis"
	"dana/internal/verification/service"
	id "dana/pkg/domain"
	"dana/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *service.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.cache = service.NewRedisCache(&redis.Client{Client: s.redis.Client}, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestSetGetInvalidate() {
	ctx := context.Background()
	actorID := id.NewActorID()

	_, ok := s.cache.Get(ctx, actorID)
	s.False(ok, "cold cache misses")

	s.cache.Set(ctx, actorID, true)
	verified, ok := s.cache.Get(ctx, actorID)
	s.True(ok)
	s.True(verified)

	s.cache.Set(ctx, actorID, false)
	verified, ok = s.cache.Get(ctx, actorID)
	s.True(ok)
	s.False(verified)

	s.cache.Invalidate(ctx, actorID)
	_, ok = s.cache.Get(ctx, actorID)
	s.False(ok, "invalidated entry misses")
}

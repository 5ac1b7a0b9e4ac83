package service

import (
	"context"
	"time"

	"dana/internal/platform/redis"
	id "dana/pkg/domain"
)

// Cache answers "is this NGO verified" without a database round trip.
// Implementations may miss; the service falls through to the store.
type Cache interface {
	Get(ctx context.Context, actorID id.ActorID) (verified bool, ok bool)
	Set(ctx context.Context, actorID id.ActorID, verified bool)
	Invalidate(ctx context.Context, actorID id.ActorID)
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Get(context.Context, id.ActorID) (bool, bool) { return false, false }
func (NopCache) Set(context.Context, id.ActorID, bool)        {}
func (NopCache) Invalidate(context.Context, id.ActorID)       {}

const verifiedKeyPrefix = "ngo:verified:"

// RedisCache caches verification status in redis with a TTL. Entries are
// invalidated on submit and review, so the TTL only bounds staleness when an
// invalidation is lost.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, actorID id.ActorID) (bool, bool) {
	// A miss and a redis failure look the same to callers; both fall
	// through to the store.
	value, err := c.client.Get(ctx, verifiedKeyPrefix+actorID.String()).Result()
	if err != nil {
		return false, false
	}
	return value == "1", true
}

func (c *RedisCache) Set(ctx context.Context, actorID id.ActorID, verified bool) {
	value := "0"
	if verified {
		value = "1"
	}
	c.client.Set(ctx, verifiedKeyPrefix+actorID.String(), value, c.ttl)
}

func (c *RedisCache) Invalidate(ctx context.Context, actorID id.ActorID) {
	c.client.Del(ctx, verifiedKeyPrefix+actorID.String())
}

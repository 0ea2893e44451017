package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// StatsCache keeps aggregate stats responses out of the hot query path.
// Writes invalidate the owner's entries; reads tolerate any cache failure.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, keys ...string)
}

const statsCacheTTL = 30 * time.Second

type memoryStatsCache struct {
	c *cache.Cache
}

// NewMemoryStatsCache is the in-process default.
func NewMemoryStatsCache() StatsCache {
	return &memoryStatsCache{
		c: cache.New(statsCacheTTL, 5*time.Minute),
	}
}

func (m *memoryStatsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if x, found := m.c.Get(key); found {
		return x.([]byte), true
	}
	return nil, false
}

func (m *memoryStatsCache) Set(ctx context.Context, key string, value []byte) {
	m.c.Set(key, value, cache.DefaultExpiration)
}

func (m *memoryStatsCache) Delete(ctx context.Context, keys ...string) {
	for _, k := range keys {
		m.c.Delete(k)
	}
}

type redisStatsCache struct {
	rdb *redis.Client
}

// NewRedisStatsCache shares stats entries across instances when REDIS_URL is
// configured.
func NewRedisStatsCache(rdb *redis.Client) StatsCache {
	return &redisStatsCache{rdb: rdb}
}

func (r *redisStatsCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (r *redisStatsCache) Set(ctx context.Context, key string, value []byte) {
	r.rdb.Set(ctx, key, value, statsCacheTTL)
}

func (r *redisStatsCache) Delete(ctx context.Context, keys ...string) {
	r.rdb.Del(ctx, keys...)
}

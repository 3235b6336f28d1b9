package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// Stats represents cache performance counters across both tiers.
type Stats struct {
	MemoryHits   int64     `json:"memory_hits"`
	MemoryMisses int64     `json:"memory_misses"`
	RedisHits    int64     `json:"redis_hits"`
	RedisMisses  int64     `json:"redis_misses"`
	Sets         int64     `json:"sets"`
	ErrorCount   int64     `json:"error_count"`
	LastReset    time.Time `json:"last_reset"`
}

// TieredCache layers the memory tier over the Redis tier. Either tier may be
// nil; a Redis hit backfills the memory tier for subsequent lookups.
type TieredCache struct {
	memory *MemoryCache
	redis  *RedisCache
	logger *logrus.Logger

	statsMu sync.RWMutex
	stats   Stats
}

// NewTieredCache creates a tiered cache over the given tiers.
func NewTieredCache(memory *MemoryCache, redis *RedisCache, logger *logrus.Logger) *TieredCache {
	return &TieredCache{
		memory: memory,
		redis:  redis,
		logger: logger,
		stats: Stats{
			LastReset: time.Now(),
		},
	}
}

// Get looks the key up tier by tier.
func (t *TieredCache) Get(ctx context.Context, key string) ([]domain.Recommendation, bool, error) {
	if t.memory != nil {
		if recommendations, found, _ := t.memory.Get(ctx, key); found {
			t.incrementStat("memory_hits")
			t.logger.WithField("cache_tier", "memory").Debug("Result cache hit")
			return recommendations, true, nil
		}
		t.incrementStat("memory_misses")
	}

	if t.redis != nil {
		recommendations, found, err := t.redis.Get(ctx, key)
		if err != nil {
			t.incrementStat("error_count")
			return nil, false, err
		}
		if found {
			t.incrementStat("redis_hits")
			t.logger.WithField("cache_tier", "redis").Debug("Result cache hit")

			// Populate memory cache for next time
			if t.memory != nil {
				_ = t.memory.Set(ctx, key, recommendations)
			}
			return recommendations, true, nil
		}
		t.incrementStat("redis_misses")
	}

	return nil, false, nil
}

// Set writes the result to every configured tier.
func (t *TieredCache) Set(ctx context.Context, key string, recommendations []domain.Recommendation) error {
	t.incrementStat("sets")

	if t.memory != nil {
		_ = t.memory.Set(ctx, key, recommendations)
	}

	if t.redis != nil {
		if err := t.redis.Set(ctx, key, recommendations); err != nil {
			t.incrementStat("error_count")
			return err
		}
	}

	return nil
}

// GetStats returns a snapshot of the cache counters.
func (t *TieredCache) GetStats() Stats {
	t.statsMu.RLock()
	defer t.statsMu.RUnlock()
	return t.stats
}

func (t *TieredCache) incrementStat(statName string) {
	t.statsMu.Lock()
	defer t.statsMu.Unlock()

	switch statName {
	case "memory_hits":
		t.stats.MemoryHits++
	case "memory_misses":
		t.stats.MemoryMisses++
	case "redis_hits":
		t.stats.RedisHits++
	case "redis_misses":
		t.stats.RedisMisses++
	case "sets":
		t.stats.Sets++
	case "error_count":
		t.stats.ErrorCount++
	}
}

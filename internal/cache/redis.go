package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// cachedResult is the Redis value envelope. ExpiresAt is enforced on read in
// addition to the Redis key TTL.
type cachedResult struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	CachedAt        time.Time               `json:"cached_at"`
	ExpiresAt       time.Time               `json:"expires_at"`
}

// RedisCache is the shared result cache tier. All Redis calls run through a
// circuit breaker so a degraded Redis degrades lookups, not evaluations.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *logrus.Logger
}

// NewRedisCache connects to Redis, verifies the connection, and wires the
// circuit breaker.
func NewRedisCache(config domain.CacheConfig, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ResultCache",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Cache circuit breaker state changed")
		},
	})

	return &RedisCache{
		client:  client,
		breaker: breaker,
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// Get retrieves a cached result. Corrupt and expired entries are deleted on
// read and reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.Recommendation, bool, error) {
	value, err := c.breaker.Execute(func() (interface{}, error) {
		val, err := c.client.Get(ctx, key).Result()
		if err == redis.Nil {
			// A miss is not a breaker failure
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	if value == nil {
		return nil, false, nil
	}

	var cached cachedResult
	if err := json.Unmarshal([]byte(value.(string)), &cached); err != nil {
		// Remove corrupted cache entry
		c.client.Del(ctx, key)
		return nil, false, nil
	}

	if time.Now().After(cached.ExpiresAt) {
		c.client.Del(ctx, key)
		return nil, false, nil
	}

	return cached.Recommendations, true, nil
}

// Set stores a result under the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, recommendations []domain.Recommendation) error {
	cached := cachedResult{
		Recommendations: recommendations,
		CachedAt:        time.Now(),
		ExpiresAt:       time.Now().Add(c.ttl),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to marshal cached result: %w", err)
	}

	if _, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, data, c.ttl).Err()
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	return nil
}

// Ping checks if the Redis connection is alive.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// MemoryCache is the in-process result cache tier: a fixed-size LRU with a
// per-entry TTL.
type MemoryCache struct {
	entries *lru.Cache
	ttl     time.Duration
}

type memoryEntry struct {
	recommendations []domain.Recommendation
	expiry          time.Time
}

func (e *memoryEntry) isExpired() bool {
	return time.Now().After(e.expiry)
}

// NewMemoryCache creates a memory cache holding up to size entries, each
// valid for ttl. Non-positive arguments fall back to defaults.
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	if size <= 0 {
		size = 1000
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &MemoryCache{
		entries: entries,
		ttl:     ttl,
	}, nil
}

// Get retrieves a cached result. Expired entries are removed on read.
func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.Recommendation, bool, error) {
	value, ok := c.entries.Get(key)
	if !ok {
		return nil, false, nil
	}

	entry, ok := value.(*memoryEntry)
	if !ok || entry.isExpired() {
		c.entries.Remove(key)
		return nil, false, nil
	}

	return entry.recommendations, true, nil
}

// Set stores a result under the configured TTL.
func (c *MemoryCache) Set(_ context.Context, key string, recommendations []domain.Recommendation) error {
	c.entries.Add(key, &memoryEntry{
		recommendations: recommendations,
		expiry:          time.Now().Add(c.ttl),
	})
	return nil
}

// Len returns the current number of cached entries.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// Purge drops every cached entry.
func (c *MemoryCache) Purge() {
	c.entries.Purge()
}

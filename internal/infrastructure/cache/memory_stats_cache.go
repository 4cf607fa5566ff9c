package cache

import (
	"context"
	"sync"
	"time"

	"disputedesk/internal/domain/entity"
)

// MemoryStatisticsCache is used when no Redis address is configured. It is
// local to one process.
type MemoryStatisticsCache struct {
	mu        sync.RWMutex
	stats     *entity.DisputeStatistics
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewMemoryStatisticsCache(ttl time.Duration) *MemoryStatisticsCache {
	return &MemoryStatisticsCache{ttl: ttl, now: time.Now}
}

func (c *MemoryStatisticsCache) Get(ctx context.Context) (*entity.DisputeStatistics, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.stats == nil || !c.now().Before(c.expiresAt) {
		return nil, nil
	}
	copied := *c.stats
	return &copied, nil
}

func (c *MemoryStatisticsCache) Set(ctx context.Context, stats *entity.DisputeStatistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stats == nil {
		c.stats = nil
		return nil
	}
	copied := *stats
	c.stats = &copied
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryStatisticsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	return nil
}

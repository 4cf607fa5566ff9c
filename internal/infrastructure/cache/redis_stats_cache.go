package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"disputedesk/internal/domain/entity"
)

const statisticsKey = "disputedesk:stats:dashboard"

// Connect accepts either a redis:// URL or a bare host:port.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

type RedisStatisticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatisticsCache(client *redis.Client, ttl time.Duration) *RedisStatisticsCache {
	return &RedisStatisticsCache{client: client, ttl: ttl}
}

func (c *RedisStatisticsCache) Get(ctx context.Context) (*entity.DisputeStatistics, error) {
	raw, err := c.client.Get(ctx, statisticsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out entity.DisputeStatistics
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	out.AverageResolutionTime = time.Duration(out.AverageResolutionMinutes * float64(time.Minute))
	return &out, nil
}

func (c *RedisStatisticsCache) Set(ctx context.Context, stats *entity.DisputeStatistics) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statisticsKey, raw, c.ttl).Err()
}

func (c *RedisStatisticsCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, statisticsKey).Err()
}

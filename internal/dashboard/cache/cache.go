// Package cache stores dashboard summaries in Redis for a short time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"compliance_backend/internal/dashboard/transport"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "compliance:dashboard:"

// RedisCache keeps one summary per organization.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a summary cache with the given entry lifetime.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Key is the Redis key of an organization's summary.
func Key(organizationID uuid.UUID) string {
	return keyPrefix + organizationID.String()
}

// Get returns the cached summary. A miss is (zero, false, nil).
func (c *RedisCache) Get(ctx context.Context, organizationID uuid.UUID) (transport.SummaryResponse, bool, error) {
	raw, err := c.client.Get(ctx, Key(organizationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return transport.SummaryResponse{}, false, nil
	}
	if err != nil {
		return transport.SummaryResponse{}, false, fmt.Errorf("get dashboard cache: %w", err)
	}

	var summary transport.SummaryResponse
	if err := json.Unmarshal(raw, &summary); err != nil {
		return transport.SummaryResponse{}, false, fmt.Errorf("decode dashboard cache: %w", err)
	}
	return summary, true, nil
}

func (c *RedisCache) Set(ctx context.Context, organizationID uuid.UUID, summary transport.SummaryResponse) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}
	if err := c.client.Set(ctx, Key(organizationID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set dashboard cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary so the next read recomputes it.
func (c *RedisCache) Invalidate(ctx context.Context, organizationID uuid.UUID) error {
	if err := c.client.Del(ctx, Key(organizationID)).Err(); err != nil {
		return fmt.Errorf("invalidate dashboard cache: %w", err)
	}
	return nil
}

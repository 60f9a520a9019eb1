package cache

import (
	"context"
	"testing"
	"time"

	"compliance_backend/internal/dashboard/transport"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute), mr
}

func TestRoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	org := uuid.New()

	_, ok, err := c.Get(ctx, org)
	require.NoError(t, err)
	assert.False(t, ok)

	summary := transport.SummaryResponse{TotalEquipment: 4, Green: 3, Red: 1, CompliancePercentage: 75}
	require.NoError(t, c.Set(ctx, org, summary))

	got, ok, err := c.Get(ctx, org)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, summary, got)
	assert.Equal(t, time.Minute, mr.TTL(Key(org)))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, org)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateIsPerOrganization(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, c.Set(ctx, a, transport.SummaryResponse{TotalEquipment: 1}))
	require.NoError(t, c.Set(ctx, b, transport.SummaryResponse{TotalEquipment: 2}))
	require.NoError(t, c.Invalidate(ctx, a))

	_, ok, _ := c.Get(ctx, a)
	assert.False(t, ok)
	got, ok, _ := c.Get(ctx, b)
	assert.True(t, ok)
	assert.Equal(t, 2, got.TotalEquipment)
}

func TestServerErrorsSurface(t *testing.T) {
	c, mr := newTestCache(t)
	mr.SetError("LOADING")

	_, _, err := c.Get(context.Background(), uuid.New())
	assert.Error(t, err)
}

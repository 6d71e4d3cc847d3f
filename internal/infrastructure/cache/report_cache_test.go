package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelstock/internal/core/id"
	"fuelstock/internal/domain/ledger"
)

func newTestCache(t *testing.T) (*ReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewReportCache(client, 5*time.Minute, nil), mr
}

func TestReportCacheSetAndGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	payload := []byte(`{"rows":[]}`)
	require.NoError(t, c.Set(ctx, "warehouse-status:all", payload))

	got, ok, err := c.Get(ctx, "warehouse-status:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestReportCacheMiss(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	got, ok, err := c.Get(ctx, "warehouse-status:all")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestReportCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "item-status:x", []byte("{}")))
	mr.FastForward(6 * time.Minute)

	_, ok, err := c.Get(ctx, "item-status:x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerChangedInvalidatesReports(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	require.NoError(t, c.Set(ctx, "warehouse-status:all", []byte("{}")))
	require.NoError(t, c.Set(ctx, "item-status:x", []byte("{}")))

	// Keys outside the report namespace survive invalidation.
	require.NoError(t, mr.Set("session:abc", "keep"))

	err := c.LedgerChanged(ctx, ledger.ChangedEvent{
		WarehouseID: id.New(),
		ItemID:      id.New(),
		At:          time.Now(),
	})
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, "warehouse-status:all")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, "item-status:x")
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := mr.Get("session:abc")
	require.NoError(t, err)
	assert.Equal(t, "keep", val)
}

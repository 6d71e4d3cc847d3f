// Package cache provides the Redis-backed report cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fuelstock/internal/domain/ledger"
	"fuelstock/internal/domain/reports"
	"fuelstock/pkg/logger"
)

// keyPrefix namespaces report payloads in a shared Redis.
const keyPrefix = "report:"

// ReportCache implements reports.Cache on Redis with a fixed TTL.
// It also implements ledger.EventSink: any balance mutation drops the
// whole report namespace, since movement reports and status reports
// both derive from the ledger.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewReportCache creates a report cache with the given TTL.
func NewReportCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ReportCache {
	if log == nil {
		log = logger.Default()
	}
	return &ReportCache{
		client: client,
		ttl:    ttl,
		log:    log.WithComponent("report_cache"),
	}
}

// Get retrieves a cached payload. A miss is not an error.
func (c *ReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set stores a payload under the report namespace.
func (c *ReportCache) Set(ctx context.Context, key string, payload []byte) error {
	if err := c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// LedgerChanged invalidates all cached reports.
func (c *ReportCache) LedgerChanged(ctx context.Context, ev ledger.ChangedEvent) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	c.log.WithContext(ctx).Debugw("report cache invalidated",
		"keys", len(keys),
		"warehouseId", ev.WarehouseID.String(),
		"itemId", ev.ItemID.String(),
	)

	return nil
}

var (
	_ reports.Cache    = (*ReportCache)(nil)
	_ ledger.EventSink = (*ReportCache)(nil)
)

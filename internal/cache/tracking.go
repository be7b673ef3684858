// Package cache publishes short-lived shipment snapshots to Redis. Status
// pages and support tooling read them so lookups do not hit the order store.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/courier-webhooks/internal/domain"
)

const keyPrefix = "tracking:snapshot:"

// TrackingCache implements reconcile.TrackingCache on Redis.
type TrackingCache struct {
	client *redis.Client
}

// NewTrackingCache creates a Redis-backed tracking cache.
func NewTrackingCache(client *redis.Client) *TrackingCache {
	return &TrackingCache{client: client}
}

func key(trackingNumber string) string { return keyPrefix + trackingNumber }

// Put stores snap under its tracking number, replacing any previous value.
func (c *TrackingCache) Put(ctx context.Context, snap domain.TrackingSnapshot, ttl time.Duration) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode tracking snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key(snap.TrackingNumber), b, ttl).Err(); err != nil {
		return fmt.Errorf("cache tracking snapshot %s: %w", snap.TrackingNumber, err)
	}
	return nil
}

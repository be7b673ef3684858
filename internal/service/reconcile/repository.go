package reconcile

import (
	"context"
	"time"

	"github.com/ignite/courier-webhooks/internal/domain"
)

// OrderRepository reads and mutates orders. Implementations must be safe for
// concurrent use.
type OrderRepository interface {
	// FindByTrackingNumber returns the order with an exact tracking number
	// match. Returns ErrOrderNotFound if none exists.
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error)

	// ApplyEvent atomically writes the order's status, ETA, metadata and
	// updated_at, appends rec, and records rec.DedupeKey. If the dedupe key
	// already exists nothing is written and ErrDuplicateEvent is returned.
	ApplyEvent(ctx context.Context, order *domain.Order, rec *domain.TrackingEventRecord) error
}

// TrackingCache stores short-lived shipment snapshots.
type TrackingCache interface {
	Put(ctx context.Context, snap domain.TrackingSnapshot, ttl time.Duration) error
}

// PerformanceStore keeps per-order delivery timeliness and per-courier
// aggregates.
type PerformanceStore interface {
	Upsert(ctx context.Context, p domain.CourierPerformance) error
	RecomputeAggregates(ctx context.Context, courierID string, code domain.CourierCode) error
}

// AuditLog records inbound webhook calls.
type AuditLog interface {
	Record(ctx context.Context, e domain.AuditEntry) error
}

// RecipientResolver looks up who to notify about an order.
type RecipientResolver interface {
	Resolve(ctx context.Context, orderID string) (domain.Recipients, error)
}

// Notifier delivers status-change notifications.
type Notifier interface {
	Notify(ctx context.Context, n domain.StatusNotification) error
}

// Archiver keeps a copy of the raw webhook payload.
type Archiver interface {
	Archive(ctx context.Context, key string, ev domain.CanonicalEvent) error
}

// Locker serializes work on one key across replicas. The returned context
// replaces ctx for the locked section; the returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (context.Context, func(), error)
}

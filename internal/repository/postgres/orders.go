package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/service/reconcile"
)

// OrderRepo implements reconcile.OrderRepository against PostgreSQL.
type OrderRepo struct{ db *sql.DB }

// NewOrderRepo creates a Postgres-backed order repository.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

func (r *OrderRepo) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Order, error) {
	var (
		o        domain.Order
		status   string
		eta      sql.NullTime
		courier  sql.NullString
		metadata []byte
	)
	err := database.From(ctx, r.db).QueryRowContext(ctx, `
		SELECT order_id, tracking_number, order_status, estimated_delivery,
		       created_at, updated_at, courier_id, metadata
		FROM orders
		WHERE tracking_number = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, trackingNumber).Scan(&o.ID, &o.TrackingNumber, &status, &eta, &o.CreatedAt, &o.UpdatedAt, &courier, &metadata)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconcile.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order by tracking number: %w", err)
	}

	o.Status = domain.OrderStatus(status)
	o.CourierID = courier.String
	if eta.Valid {
		t := eta.Time.UTC()
		o.EstimatedDelivery = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &o.Metadata); err != nil {
			return nil, fmt.Errorf("decode order metadata: %w", err)
		}
	}
	return &o, nil
}

func (r *OrderRepo) ApplyEvent(ctx context.Context, o *domain.Order, rec *domain.TrackingEventRecord) error {
	metadata := []byte("{}")
	if len(o.Metadata) > 0 {
		b, err := json.Marshal(o.Metadata)
		if err != nil {
			return fmt.Errorf("encode order metadata: %w", err)
		}
		metadata = b
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	tx, err := database.From(ctx, r.db).BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO courier_webhook_receipts (dedupe_key, order_id, courier_code, received_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (dedupe_key) DO NOTHING
	`, rec.DedupeKey, o.ID, rec.CourierCode)
	if err != nil {
		return fmt.Errorf("record webhook receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reconcile.ErrDuplicateEvent
	}

	var eta any
	if o.EstimatedDelivery != nil {
		eta = *o.EstimatedDelivery
	}
	res, err = tx.ExecContext(ctx, `
		UPDATE orders
		SET order_status = $2, estimated_delivery = $3, metadata = $4::jsonb, updated_at = $5
		WHERE order_id = $1
	`, o.ID, o.Status, eta, string(metadata), o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reconcile.ErrOrderNotFound
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_tracking_events (
			id, order_id, tracking_number, courier_code, event_type, provider_status,
			unified_status, description, location, event_timestamp, dedupe_key,
			raw_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, rec.ID, rec.OrderID, rec.TrackingNumber, rec.CourierCode, rec.EventType, rec.ProviderStatus,
		rec.UnifiedStatus, rec.Description, rec.Location, rec.EventTimestamp, rec.DedupeKey,
		rec.RawPayload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert tracking event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tracking event: %w", err)
	}
	return nil
}

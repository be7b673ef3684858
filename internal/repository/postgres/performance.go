package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/domain"
)

// PerformanceRepo implements reconcile.PerformanceStore against PostgreSQL.
type PerformanceRepo struct{ db *sql.DB }

// NewPerformanceRepo creates a Postgres-backed courier performance store.
func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

// Upsert records one delivered order's timeliness. A later delivery event
// for the same order replaces the earlier record.
func (r *PerformanceRepo) Upsert(ctx context.Context, p domain.CourierPerformance) error {
	var eta any
	if p.EstimatedDelivery != nil {
		eta = *p.EstimatedDelivery
	}
	var hours any
	if p.DeliveryTimeHours != nil {
		hours = *p.DeliveryTimeHours
	}
	_, err := database.From(ctx, r.db).ExecContext(ctx, `
		INSERT INTO courier_performance (
			order_id, courier_id, courier_code, estimated_delivery, actual_delivery,
			on_time, delivery_time_hours, otd_status, updated_at
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (order_id) DO UPDATE SET
			courier_id = EXCLUDED.courier_id,
			courier_code = EXCLUDED.courier_code,
			estimated_delivery = EXCLUDED.estimated_delivery,
			actual_delivery = EXCLUDED.actual_delivery,
			on_time = EXCLUDED.on_time,
			delivery_time_hours = EXCLUDED.delivery_time_hours,
			otd_status = EXCLUDED.otd_status,
			updated_at = NOW()
	`, p.OrderID, p.CourierID, p.CourierCode, eta, p.ActualDelivery, p.OnTime, hours, p.OTDStatus)
	if err != nil {
		return fmt.Errorf("upsert courier performance: %w", err)
	}
	return nil
}

// RecomputeAggregates rebuilds the courier's summary row from its
// performance records.
func (r *PerformanceRepo) RecomputeAggregates(ctx context.Context, courierID string, code domain.CourierCode) error {
	_, err := database.From(ctx, r.db).ExecContext(ctx, `
		INSERT INTO courier_metrics (
			courier_code, courier_id, total_deliveries, on_time_deliveries,
			early_deliveries, delayed_deliveries, on_time_rate, avg_delivery_hours, updated_at
		)
		SELECT $1, NULLIF($2, ''),
		       COUNT(*),
		       COUNT(*) FILTER (WHERE on_time),
		       COUNT(*) FILTER (WHERE otd_status = 'early'),
		       COUNT(*) FILTER (WHERE otd_status = 'delayed'),
		       COALESCE(AVG(CASE WHEN on_time THEN 1.0 ELSE 0.0 END), 0),
		       AVG(delivery_time_hours),
		       NOW()
		FROM courier_performance
		WHERE courier_code = $1
		ON CONFLICT (courier_code) DO UPDATE SET
			courier_id = COALESCE(EXCLUDED.courier_id, courier_metrics.courier_id),
			total_deliveries = EXCLUDED.total_deliveries,
			on_time_deliveries = EXCLUDED.on_time_deliveries,
			early_deliveries = EXCLUDED.early_deliveries,
			delayed_deliveries = EXCLUDED.delayed_deliveries,
			on_time_rate = EXCLUDED.on_time_rate,
			avg_delivery_hours = EXCLUDED.avg_delivery_hours,
			updated_at = NOW()
	`, code, courierID)
	if err != nil {
		return fmt.Errorf("recompute courier metrics: %w", err)
	}
	return nil
}

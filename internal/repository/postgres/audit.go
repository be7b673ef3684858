package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/domain"
)

// AuditRepo implements reconcile.AuditLog against PostgreSQL.
type AuditRepo struct{ db *sql.DB }

// NewAuditRepo creates a Postgres-backed audit log.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Record(ctx context.Context, e domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	_, err := database.From(ctx, r.db).ExecContext(ctx, `
		INSERT INTO api_audit_log (
			id, endpoint, courier_code, order_id, tracking_number, event_type,
			success, status_changed, created_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
	`, e.ID, e.Endpoint, e.CourierCode, e.OrderID, e.TrackingNumber, e.EventType,
		e.Success, e.StatusChanged, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ignite/courier-webhooks/internal/database"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/service/reconcile"
)

// RecipientRepo implements reconcile.RecipientResolver by joining the order
// with its store and courier.
type RecipientRepo struct{ db *sql.DB }

// NewRecipientRepo creates a Postgres-backed recipient resolver.
func NewRecipientRepo(db *sql.DB) *RecipientRepo { return &RecipientRepo{db: db} }

func (r *RecipientRepo) Resolve(ctx context.Context, orderID string) (domain.Recipients, error) {
	var rc domain.Recipients
	err := database.From(ctx, r.db).QueryRowContext(ctx, `
		SELECT COALESCE(o.customer_name, ''), COALESCE(o.customer_email, ''), COALESCE(o.customer_phone, ''),
		       COALESCE(s.name, ''), COALESCE(s.email, ''), COALESCE(c.name, '')
		FROM orders o
		LEFT JOIN stores s ON s.id = o.store_id
		LEFT JOIN couriers c ON c.id = o.courier_id
		WHERE o.order_id = $1
	`, orderID).Scan(&rc.CustomerName, &rc.CustomerEmail, &rc.CustomerPhone,
		&rc.MerchantName, &rc.MerchantEmail, &rc.CourierName)
	if errors.Is(err, sql.ErrNoRows) {
		return rc, reconcile.ErrOrderNotFound
	}
	if err != nil {
		return rc, fmt.Errorf("resolve recipients: %w", err)
	}
	return rc, nil
}

package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/service/reconcile"
)

func TestPerformanceRepo_Upsert(t *testing.T) {
	db, mock := newMock(t)
	eta := time.Date(2025, 11, 10, 18, 0, 0, 0, time.UTC)
	actual := eta.Add(-210 * time.Minute)
	hours := 3.5

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courier_performance")).
		WithArgs("ord-1", "cour-1", "postnord", eta, actual, true, hours, "on_time").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewPerformanceRepo(db).Upsert(context.Background(), domain.CourierPerformance{
		OrderID:           "ord-1",
		CourierID:         "cour-1",
		CourierCode:       domain.CourierPostNord,
		EstimatedDelivery: &eta,
		ActualDelivery:    actual,
		OnTime:            true,
		DeliveryTimeHours: &hours,
		OTDStatus:         domain.OTDOnTime,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPerformanceRepo_RecomputeAggregates(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courier_metrics")).
		WithArgs("bring", "cour-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewPerformanceRepo(db).RecomputeAggregates(context.Background(), "cour-2", domain.CourierBring))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_Record(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO api_audit_log")).
		WithArgs(sqlmock.AnyArg(), "/tracking/webhook", "dhl", "ord-9", "JD01", "delivered", true, true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewAuditRepo(db).Record(context.Background(), domain.AuditEntry{
		Endpoint:       "/tracking/webhook",
		CourierCode:    domain.CourierDHL,
		OrderID:        "ord-9",
		TrackingNumber: "JD01",
		EventType:      domain.EventDelivered,
		Success:        true,
		StatusChanged:  true,
		CreatedAt:      now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_RecordError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO api_audit_log")).WillReturnError(errors.New("boom"))

	err := NewAuditRepo(db).Record(context.Background(), domain.AuditEntry{Endpoint: "/tracking/webhook"})
	assert.Error(t, err)
}

func TestRecipientRepo_Resolve(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN stores")).
		WithArgs("ord-1").
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f"}).
			AddRow("Anna", "anna@example.se", "+46701234567", "Butiken", "shop@example.se", "PostNord"))

	rc, err := NewRecipientRepo(db).Resolve(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, "anna@example.se", rc.CustomerEmail)
	assert.Equal(t, "Butiken", rc.MerchantName)
	assert.Equal(t, "PostNord", rc.CourierName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipientRepo_ResolveMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN stores")).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e", "f"}))

	_, err := NewRecipientRepo(db).Resolve(context.Background(), "ord-x")
	assert.True(t, errors.Is(err, reconcile.ErrOrderNotFound))
}

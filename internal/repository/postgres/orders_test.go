package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
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

// exactBytes matches a []byte argument byte for byte.
type exactBytes []byte

func (e exactBytes) Match(v driver.Value) bool {
	b, ok := v.([]byte)
	return ok && string(b) == string(e)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var orderColumns = []string{
	"order_id", "tracking_number", "order_status", "estimated_delivery",
	"created_at", "updated_at", "courier_id", "metadata",
}

func TestOrderRepo_FindByTrackingNumber(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepo(db)
	eta := time.Date(2025, 11, 10, 18, 0, 0, 0, time.UTC)
	created := eta.Add(-72 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("370123456789").
		WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(
			"ord-1", "370123456789", "in_transit", eta, created, created, "cour-1",
			[]byte(`{"postnord":{"events_count":2},"gift_wrap":true}`),
		))

	o, err := repo.FindByTrackingNumber(context.Background(), "370123456789")
	require.NoError(t, err)
	assert.Equal(t, "ord-1", o.ID)
	assert.Equal(t, domain.StatusInTransit, o.Status)
	require.NotNil(t, o.EstimatedDelivery)
	assert.True(t, o.EstimatedDelivery.Equal(eta))
	assert.Equal(t, "cour-1", o.CourierID)
	state, err := o.CourierState(domain.CourierPostNord)
	require.NoError(t, err)
	assert.Equal(t, 2, state.EventsCount)
	assert.JSONEq(t, "true", string(o.Metadata["gift_wrap"]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_FindByTrackingNumber_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := NewOrderRepo(db).FindByTrackingNumber(context.Background(), "nope")
	assert.True(t, errors.Is(err, reconcile.ErrOrderNotFound))
}

func testOrderAndRecord() (*domain.Order, *domain.TrackingEventRecord) {
	eta := time.Date(2025, 11, 10, 18, 0, 0, 0, time.UTC)
	now := time.Date(2025, 11, 10, 14, 31, 0, 0, time.UTC)
	o := &domain.Order{
		ID:                "ord-1",
		TrackingNumber:    "370123456789",
		Status:            domain.StatusDelivered,
		EstimatedDelivery: &eta,
		UpdatedAt:         now,
		Metadata:          map[string]json.RawMessage{"postnord": json.RawMessage(`{"events_count":1}`)},
	}
	rec := &domain.TrackingEventRecord{
		OrderID:        "ord-1",
		TrackingNumber: "370123456789",
		CourierCode:    domain.CourierPostNord,
		EventType:      domain.EventDelivered,
		ProviderStatus: "DELIVERED",
		UnifiedStatus:  domain.StatusDelivered,
		EventTimestamp: time.Date(2025, 11, 10, 14, 30, 0, 0, time.UTC),
		DedupeKey:      "abc123",
		RawPayload:     []byte("{\"shipmentId\":\"370123456789\",  \"events\":[{\"eventCode\":\"DELIVERED\"}]}\n"),
		CreatedAt:      now,
	}
	return o, rec
}

func TestOrderRepo_ApplyEvent_CommitsPairWithRawPayload(t *testing.T) {
	db, mock := newMock(t)
	o, rec := testOrderAndRecord()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courier_webhook_receipts")).
		WithArgs("abc123", "ord-1", "postnord").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WithArgs("ord-1", "delivered", *o.EstimatedDelivery, `{"postnord":{"events_count":1}}`, o.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_tracking_events")).
		WithArgs(sqlmock.AnyArg(), "ord-1", "370123456789", "postnord", "delivered", "DELIVERED",
			"delivered", "", "", rec.EventTimestamp, "abc123", exactBytes(rec.RawPayload), rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewOrderRepo(db).ApplyEvent(context.Background(), o, rec))
	assert.NotEmpty(t, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_ApplyEvent_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	o, rec := testOrderAndRecord()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courier_webhook_receipts")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewOrderRepo(db).ApplyEvent(context.Background(), o, rec)
	assert.True(t, errors.Is(err, reconcile.ErrDuplicateEvent))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_ApplyEvent_RollsBackOnInsertFailure(t *testing.T) {
	db, mock := newMock(t)
	o, rec := testOrderAndRecord()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courier_webhook_receipts")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_tracking_events")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := NewOrderRepo(db).ApplyEvent(context.Background(), o, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert tracking event")
	assert.NoError(t, mock.ExpectationsWereMet())
}

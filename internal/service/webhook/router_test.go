package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/courier-webhooks/internal/courier"
	"github.com/ignite/courier-webhooks/internal/domain"
)

var secrets = courier.Secrets{
	PostNord:      "pn-secret",
	Bring:         "bring-secret",
	Budbee:        "budbee-secret",
	DHLCredential: "dhl:pass",
}

type spyReconciler struct {
	calls  []domain.CanonicalEvent
	result domain.WebhookResult
	err    error
	panic  bool
}

func (s *spyReconciler) Reconcile(_ context.Context, ev domain.CanonicalEvent) (domain.WebhookResult, error) {
	if s.panic {
		panic("boom")
	}
	s.calls = append(s.calls, ev)
	if s.result.Success || s.err != nil {
		return s.result, s.err
	}
	return domain.WebhookResult{Success: true, TrackingNumber: ev.TrackingNumber, EventType: ev.EventType}, nil
}

// spyProvider wraps a real provider and counts Parse calls.
type spyProvider struct {
	courier.Provider
	parsed *int
}

func (p spyProvider) Parse(req courier.Request) (domain.CanonicalEvent, error) {
	*p.parsed++
	return p.Provider.Parse(req)
}

func newRouter(rec Reconciler) (*Router, *int) {
	r := NewRouter(courier.NewVerifier(secrets, 0), rec, time.Second)
	parsed := new(int)
	r.providers = func(code domain.CourierCode) (courier.Provider, bool) {
		p, ok := courier.For(code)
		if !ok {
			return nil, false
		}
		return spyProvider{Provider: p, parsed: parsed}, true
	}
	return r, parsed
}

func postNordRequest(body string) courier.Request {
	mac := hmac.New(sha256.New, []byte(secrets.PostNord))
	mac.Write([]byte(body))
	h := http.Header{}
	h.Set(courier.HeaderPostNordSignature, hex.EncodeToString(mac.Sum(nil)))
	return courier.Request{Header: h, Body: []byte(body), ReceivedAt: time.Now()}
}

const postNordDelivered = `{"shipmentId":"370123456789","events":[{"eventCode":"DELIVERED","eventTime":"2025-11-10T14:30:00Z"}]}`

func TestRoute_HappyPath(t *testing.T) {
	rec := &spyReconciler{}
	r, parsed := newRouter(rec)

	res := r.Route(context.Background(), postNordRequest(postNordDelivered))
	assert.True(t, res.Success)
	assert.Equal(t, 1, *parsed)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, "370123456789", rec.calls[0].TrackingNumber)
	assert.Equal(t, domain.EventDelivered, rec.calls[0].EventType)
	assert.Equal(t, []byte(postNordDelivered), rec.calls[0].RawPayload)
}

func TestRoute_UnknownCourier(t *testing.T) {
	rec := &spyReconciler{}
	r, parsed := newRouter(rec)

	res := r.Route(context.Background(), courier.Request{Body: []byte(`{"foo":"bar"}`)})
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrCodeUnknownCourier, res.ErrorCode)
	assert.Zero(t, *parsed)
	assert.Empty(t, rec.calls)
}

func TestRoute_DHLBadAuthorizationNeverParses(t *testing.T) {
	rec := &spyReconciler{}
	r, parsed := newRouter(rec)

	h := http.Header{}
	h.Set(courier.HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte("dhl:wrong")))
	body := `{"shipments":[{"id":"JD01","events":[{"statusCode":"delivered","timestamp":"2025-11-10T14:30:00Z"}]}]}`

	res := r.Route(context.Background(), courier.Request{Header: h, Body: []byte(body)})
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrCodeAuthentication, res.ErrorCode)
	assert.Zero(t, *parsed, "adapter must not be invoked")
	assert.Empty(t, rec.calls)
}

func TestRoute_BringMissingTrackingNumberWritesNothing(t *testing.T) {
	rec := &spyReconciler{}
	r, parsed := newRouter(rec)

	body := `{"event":{"status":"DELIVERED","timestamp":"2025-11-10T14:30:00Z"}}`
	ts := time.Now().Unix()
	tsStr := strconv.FormatInt(ts, 10)
	mac := hmac.New(sha256.New, []byte(secrets.Bring))
	mac.Write([]byte(tsStr + "." + body))
	h := http.Header{}
	h.Set(courier.HeaderCourier, "bring")
	h.Set(courier.HeaderBringTimestamp, tsStr)
	h.Set(courier.HeaderBringSignature, hex.EncodeToString(mac.Sum(nil)))

	res := r.Route(context.Background(), courier.Request{Header: h, Body: []byte(body)})
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrCodeMalformed, res.ErrorCode)
	assert.Equal(t, 1, *parsed)
	assert.Empty(t, rec.calls, "no persistence on malformed payload")
}

func TestRoute_ReconcileFailurePassesThrough(t *testing.T) {
	rec := &spyReconciler{
		result: domain.Failure(domain.ErrCodeOrderNotFound, "no order matches tracking number"),
		err:    assert.AnError,
	}
	r, _ := newRouter(rec)

	res := r.Route(context.Background(), postNordRequest(postNordDelivered))
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrCodeOrderNotFound, res.ErrorCode)
}

func TestRoute_PanicBecomesFailure(t *testing.T) {
	r, _ := newRouter(&spyReconciler{panic: true})

	var res domain.WebhookResult
	assert.NotPanics(t, func() {
		res = r.Route(context.Background(), postNordRequest(postNordDelivered))
	})
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrCodeInternal, res.ErrorCode)
}

func TestRoute_CanceledClientStillProcesses(t *testing.T) {
	rec := &spyReconciler{}
	r, _ := newRouter(rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Route(ctx, postNordRequest(postNordDelivered))
	assert.True(t, res.Success)
	assert.Len(t, rec.calls, 1)
}

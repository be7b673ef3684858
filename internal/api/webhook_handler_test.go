package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/courier-webhooks/internal/courier"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/service/reconcile"
	"github.com/ignite/courier-webhooks/internal/service/webhook"
)

const postNordSecret = "pn-secret"

const postNordBody = `{"shipmentId":"PN123","events":[{"eventCode":"DELIVERED","eventTime":"2026-02-01T10:00:00Z","location":"Stockholm"}]}`

type stubReconciler struct {
	got    []domain.CanonicalEvent
	result domain.WebhookResult
	err    error
}

func (s *stubReconciler) Reconcile(ctx context.Context, ev domain.CanonicalEvent) (domain.WebhookResult, error) {
	s.got = append(s.got, ev)
	return s.result, s.err
}

func newTestHandler(rec *stubReconciler) http.Handler {
	verifier := courier.NewVerifier(courier.Secrets{PostNord: postNordSecret}, 0)
	return SetupRoutes(Deps{Router: webhook.NewRouter(verifier, rec, time.Second)})
}

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(postNordSecret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, h http.Handler, body string, headers map[string]string) (*httptest.ResponseRecorder, domain.WebhookResult) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, reconcile.Endpoint, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var res domain.WebhookResult
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	}
	return rr, res
}

func TestWebhook_ProcessesSignedPostNord(t *testing.T) {
	rec := &stubReconciler{result: domain.WebhookResult{
		Success: true, OrderID: "ord-1", TrackingNumber: "PN123",
		StatusChanged: true, NewStatus: domain.StatusDelivered,
	}}
	h := newTestHandler(rec)

	rr, res := postWebhook(t, h, postNordBody, map[string]string{
		courier.HeaderCourier:           "postnord",
		courier.HeaderPostNordSignature: sign(postNordBody),
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, res.Success)
	assert.Equal(t, "ord-1", res.OrderID)
	require.Len(t, rec.got, 1)
	assert.Equal(t, []byte(postNordBody), rec.got[0].RawPayload)
	assert.Equal(t, domain.EventDelivered, rec.got[0].EventType)
}

func TestWebhook_BadSignatureIs400(t *testing.T) {
	rec := &stubReconciler{}
	rr, res := postWebhook(t, newTestHandler(rec), postNordBody, map[string]string{
		courier.HeaderCourier:           "postnord",
		courier.HeaderPostNordSignature: "deadbeef",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.ErrCodeAuthentication, res.ErrorCode)
	assert.Empty(t, rec.got)
}

func TestWebhook_UnknownCourierIs400(t *testing.T) {
	rr, res := postWebhook(t, newTestHandler(&stubReconciler{}), `{"foo":"bar"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.ErrCodeUnknownCourier, res.ErrorCode)
}

func TestWebhook_OrderNotFoundIs200(t *testing.T) {
	rec := &stubReconciler{
		result: domain.Failure(domain.ErrCodeOrderNotFound, "order not found"),
		err:    reconcile.ErrOrderNotFound,
	}
	rr, res := postWebhook(t, newTestHandler(rec), postNordBody, map[string]string{
		courier.HeaderPostNordSignature: sign(postNordBody),
	})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrCodeOrderNotFound, res.ErrorCode)
}

func TestWebhook_PersistenceFailureIs500(t *testing.T) {
	rec := &stubReconciler{
		result: domain.Failure(domain.ErrCodePersistence, "failed to persist tracking event"),
		err:    reconcile.ErrPersistence,
	}
	rr, res := postWebhook(t, newTestHandler(rec), postNordBody, map[string]string{
		courier.HeaderCourier:           "postnord",
		courier.HeaderPostNordSignature: sign(postNordBody),
	})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, domain.ErrCodePersistence, res.ErrorCode)
}

func TestWebhook_OptionsIs200(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, reconcile.Endpoint, nil)
	rr := httptest.NewRecorder()
	newTestHandler(&stubReconciler{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWebhook_PreflightAllowsCourierHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, reconcile.Endpoint, nil)
	req.Header.Set("Origin", "https://hooks.postnord.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-PostNord-Signature")
	rr := httptest.NewRecorder()
	newTestHandler(&stubReconciler{}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebhook_OtherMethodsAre405(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, reconcile.Endpoint, nil)
		rr := httptest.NewRecorder()
		newTestHandler(&stubReconciler{}).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, method)
	}
}

func TestWebhook_BodyTooLarge(t *testing.T) {
	rec := &stubReconciler{}
	body := `{"shipmentId":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	rr, res := postWebhook(t, newTestHandler(rec), body, nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.ErrCodeMalformed, res.ErrorCode)
	assert.Empty(t, rec.got)
}

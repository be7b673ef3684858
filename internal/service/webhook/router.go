package webhook

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/courier-webhooks/internal/courier"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/metrics"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// DefaultProcessingTimeout bounds one webhook end to end.
const DefaultProcessingTimeout = 10 * time.Second

// Reconciler applies a parsed event to its order.
type Reconciler interface {
	Reconcile(ctx context.Context, ev domain.CanonicalEvent) (domain.WebhookResult, error)
}

// Router runs the webhook state machine:
// Received -> CourierDetected -> SignatureVerified -> EventParsed ->
// Reconciled -> Responded.
type Router struct {
	verifier   *courier.Verifier
	reconciler Reconciler
	timeout    time.Duration
	providers  func(domain.CourierCode) (courier.Provider, bool)
}

// NewRouter creates a Router. A non-positive timeout uses
// DefaultProcessingTimeout.
func NewRouter(verifier *courier.Verifier, reconciler Reconciler, timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultProcessingTimeout
	}
	return &Router{
		verifier:   verifier,
		reconciler: reconciler,
		timeout:    timeout,
		providers:  courier.For,
	}
}

// Route processes one webhook. A client going away does not cancel
// processing; the processing timeout does.
func (r *Router) Route(ctx context.Context, req courier.Request) (res domain.WebhookResult) {
	start := time.Now()
	code := domain.CourierCode("")

	defer func() {
		if p := recover(); p != nil {
			logger.Error("webhook routing panicked", "courier", code, "panic", p)
			res = domain.Failure(domain.ErrCodeInternal, "internal error")
		}
		label := string(code)
		if label == "" {
			label = "unknown"
		}
		metrics.WebhooksTotal.WithLabelValues(label, outcome(res)).Inc()
		metrics.WebhookDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	// CourierDetected
	detected, ok := courier.Detect(req)
	if !ok {
		logger.Warn("webhook courier not detected", "bytes", len(req.Body))
		return domain.Failure(domain.ErrCodeUnknownCourier, courier.ErrUnknownCourier.Error())
	}
	code = detected
	provider, ok := r.providers(code)
	if !ok {
		return domain.Failure(domain.ErrCodeUnknownCourier, courier.ErrUnknownCourier.Error())
	}

	// SignatureVerified
	if !r.verifier.Verify(code, req) {
		logger.Warn("webhook authentication failed", "courier", code)
		return domain.Failure(domain.ErrCodeAuthentication, courier.ErrAuthenticationFailed.Error())
	}

	// EventParsed
	ev, err := provider.Parse(req)
	if err != nil {
		logger.Warn("webhook payload rejected", "courier", code, "error", err)
		if !errors.Is(err, courier.ErrMalformedPayload) {
			err = courier.ErrMalformedPayload
		}
		return domain.Failure(domain.ErrCodeMalformed, err.Error())
	}
	if !ev.Valid() {
		return domain.Failure(domain.ErrCodeMalformed, courier.ErrMalformedPayload.Error())
	}

	// Reconciled
	res, err = r.reconciler.Reconcile(ctx, ev)
	if err != nil {
		logger.Warn("webhook not reconciled",
			"courier", code, "tracking_number", ev.TrackingNumber, "error_code", res.ErrorCode, "error", err)
	}
	return res
}

func outcome(res domain.WebhookResult) string {
	switch {
	case res.Duplicate:
		return "duplicate"
	case res.Success:
		return "processed"
	case res.ErrorCode != "":
		return string(res.ErrorCode)
	}
	return string(domain.ErrCodeInternal)
}

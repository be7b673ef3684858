package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/courier-webhooks/internal/courier"
	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/httputil"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// MaxBodyBytes caps an inbound webhook body.
const MaxBodyBytes = 5 << 20

// WebhookRouter processes one inbound webhook.
type WebhookRouter interface {
	Route(ctx context.Context, req courier.Request) domain.WebhookResult
}

// WebhookHandler serves the courier webhook endpoint.
type WebhookHandler struct {
	router WebhookRouter
	now    func() time.Time
}

func NewWebhookHandler(router WebhookRouter) *WebhookHandler {
	return &WebhookHandler{router: router, now: time.Now}
}

//	POST    /tracking/webhook
//	OPTIONS /tracking/webhook
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	default:
		httputil.MethodNotAllowed(w, "POST, OPTIONS")
		return
	}

	receivedAt := h.now()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		msg := "failed to read request body"
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
		}
		logger.Warn("webhook body rejected", "error", err, "request_id", middleware.GetReqID(r.Context()))
		httputil.WebhookResult(w, domain.Failure(domain.ErrCodeMalformed, msg))
		return
	}

	res := h.router.Route(r.Context(), courier.NewRequest(r, body, receivedAt))
	httputil.WebhookResult(w, res)
}

package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/ignite/courier-webhooks/internal/domain"
	"github.com/ignite/courier-webhooks/internal/pkg/logger"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("httputil: JSON encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// MethodNotAllowed writes a 405 with the Allow header set.
func MethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

// WebhookStatus maps a processing result to the status code returned to the
// courier. Only 5xx invites a retry; rejected requests would fail again.
func WebhookStatus(res domain.WebhookResult) int {
	if res.Success {
		return http.StatusOK
	}
	switch res.ErrorCode {
	case domain.ErrCodeOrderNotFound:
		return http.StatusOK
	case domain.ErrCodeUnknownCourier, domain.ErrCodeAuthentication, domain.ErrCodeMalformed:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WebhookResult writes res with its mapped status code.
func WebhookResult(w http.ResponseWriter, res domain.WebhookResult) {
	JSON(w, WebhookStatus(res), res)
}

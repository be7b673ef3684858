package domain

import "time"

// ErrorCode is the machine-readable failure kind returned to couriers.
type ErrorCode string

const (
	ErrCodeUnknownCourier ErrorCode = "unknown_courier"
	ErrCodeAuthentication ErrorCode = "authentication_failed"
	ErrCodeMalformed      ErrorCode = "malformed_payload"
	ErrCodeOrderNotFound  ErrorCode = "order_not_found"
	ErrCodePersistence    ErrorCode = "persistence_error"
	ErrCodeInternal       ErrorCode = "internal_error"
)

// WebhookResult summarizes the processing of one webhook. It is produced per
// request and not persisted.
type WebhookResult struct {
	Success        bool        `json:"success"`
	OrderID        string      `json:"order_id,omitempty"`
	TrackingNumber string      `json:"tracking_number,omitempty"`
	EventType      EventType   `json:"event_type,omitempty"`
	StatusChanged  bool        `json:"status_changed"`
	OldStatus      OrderStatus `json:"old_status,omitempty"`
	NewStatus      OrderStatus `json:"new_status,omitempty"`
	ETAChanged     bool        `json:"eta_changed"`
	OldETA         *time.Time  `json:"old_eta,omitempty"`
	NewETA         *time.Time  `json:"new_eta,omitempty"`
	OTDStatus      OTDStatus   `json:"otd_status,omitempty"`
	Duplicate      bool        `json:"duplicate,omitempty"`
	Error          string      `json:"error,omitempty"`
	ErrorCode      ErrorCode   `json:"error_code,omitempty"`
}

// Failure builds an unsuccessful result.
func Failure(code ErrorCode, msg string) WebhookResult {
	return WebhookResult{Success: false, Error: msg, ErrorCode: code}
}

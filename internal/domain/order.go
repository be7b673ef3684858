package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// OrderStatus is the unified, courier-independent order lifecycle status.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusPickedUp       OrderStatus = "picked_up"
	StatusInTransit      OrderStatus = "in_transit"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusReturned       OrderStatus = "returned"
	StatusException      OrderStatus = "exception"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
)

// OTDStatus classifies whether a delivery met its estimated time.
type OTDStatus string

const (
	OTDOnTime  OTDStatus = "on_time"
	OTDEarly   OTDStatus = "early"
	OTDDelayed OTDStatus = "delayed"
	OTDUnknown OTDStatus = "unknown"
)

// Order is the subset of the persisted order this service reads and writes.
type Order struct {
	ID                string      `json:"order_id" db:"order_id"`
	TrackingNumber    string      `json:"tracking_number" db:"tracking_number"`
	Status            OrderStatus `json:"order_status" db:"order_status"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
	CourierID         string      `json:"courier_id,omitempty" db:"courier_id"`

	// Metadata is the order's JSON metadata column. Per-courier state lives
	// under the courier code key; other keys are kept as-is.
	Metadata map[string]json.RawMessage `json:"metadata,omitempty" db:"metadata"`
}

// CourierMetadata is the per-courier bag stored under Order.Metadata[code].
type CourierMetadata struct {
	LastTrackingUpdate time.Time              `json:"last_tracking_update"`
	TrackingStatus     string                 `json:"tracking_status"`
	LatestEvent        *LatestEventSnapshot   `json:"latest_event,omitempty"`
	EventsCount        int                    `json:"events_count"`
	ProofOfDelivery    *ProofOfDeliveryRecord `json:"proof_of_delivery,omitempty"`
}

// LatestEventSnapshot is the most recent event as seen on the order.
type LatestEventSnapshot struct {
	EventType   EventType `json:"event_type"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ProofOfDeliveryRecord is the proof-of-delivery as attached to the order.
type ProofOfDeliveryRecord struct {
	Signature   string    `json:"signature,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// CourierState decodes the courier's metadata bag. A missing entry yields a
// zero value. An undecodable one returns an error along with whatever could be
// read, events_count included when it is still a number.
func (o *Order) CourierState(code CourierCode) (CourierMetadata, error) {
	var m CourierMetadata
	if o == nil || o.Metadata == nil {
		return m, nil
	}
	raw, ok := o.Metadata[string(code)]
	if !ok || len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		var fields map[string]json.RawMessage
		if json.Unmarshal(raw, &fields) == nil {
			var count int
			if json.Unmarshal(fields["events_count"], &count) == nil {
				m.EventsCount = count
			}
		}
		return m, fmt.Errorf("decode %s metadata: %w", code, err)
	}
	return m, nil
}

// SetCourierState encodes m into the courier's metadata bag.
func (o *Order) SetCourierState(code CourierCode, m CourierMetadata) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if o.Metadata == nil {
		o.Metadata = make(map[string]json.RawMessage)
	}
	o.Metadata[string(code)] = raw
	return nil
}

// CourierPerformance is one delivered order's timeliness record.
type CourierPerformance struct {
	OrderID           string      `json:"order_id" db:"order_id"`
	CourierID         string      `json:"courier_id" db:"courier_id"`
	CourierCode       CourierCode `json:"courier_code" db:"courier_code"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	ActualDelivery    time.Time   `json:"actual_delivery" db:"actual_delivery"`
	OnTime            bool        `json:"on_time" db:"on_time"`
	DeliveryTimeHours *float64    `json:"delivery_time_hours,omitempty" db:"delivery_time_hours"`
	OTDStatus         OTDStatus   `json:"otd_status" db:"otd_status"`
}

// AuditEntry records one inbound webhook call.
type AuditEntry struct {
	ID             string      `json:"id" db:"id"`
	Endpoint       string      `json:"endpoint" db:"endpoint"`
	CourierCode    CourierCode `json:"courier_code" db:"courier_code"`
	OrderID        string      `json:"order_id,omitempty" db:"order_id"`
	TrackingNumber string      `json:"tracking_number" db:"tracking_number"`
	EventType      EventType   `json:"event_type" db:"event_type"`
	Success        bool        `json:"success" db:"success"`
	StatusChanged  bool        `json:"status_changed" db:"status_changed"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Recipients are the parties notified about an order status change.
type Recipients struct {
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	MerchantName  string `json:"merchant_name,omitempty"`
	MerchantEmail string `json:"merchant_email,omitempty"`
	CourierName   string `json:"courier_name,omitempty"`
}

// StatusNotification is the payload handed to the notification service.
type StatusNotification struct {
	OrderID         string      `json:"order_id"`
	TrackingNumber  string      `json:"tracking_number"`
	EventType       EventType   `json:"event_type"`
	OldStatus       OrderStatus `json:"old_status"`
	NewStatus       OrderStatus `json:"new_status"`
	CourierCode     CourierCode `json:"courier_code"`
	CourierName     string      `json:"courier_name,omitempty"`
	Recipients      Recipients  `json:"recipients"`
	OldETA          *time.Time  `json:"old_eta,omitempty"`
	NewETA          *time.Time  `json:"new_eta,omitempty"`
	ETAChanged      bool        `json:"eta_changed"`
	ActualDelivery  *time.Time  `json:"actual_delivery,omitempty"`
	ExceptionReason string      `json:"exception_reason,omitempty"`
	OTDStatus       OTDStatus   `json:"otd_status"`
}

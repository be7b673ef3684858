package domain

import "time"

// EventType is the provider-independent classification of a tracking event.
type EventType string

const (
	EventLabelCreated   EventType = "label_created"
	EventPickedUp       EventType = "picked_up"
	EventInTransit      EventType = "in_transit"
	EventOutForDelivery EventType = "out_for_delivery"
	EventDelivered      EventType = "delivered"
	EventReturned       EventType = "returned"
	EventException      EventType = "exception"
	EventReadyForPickup EventType = "ready_for_pickup"
	EventNotification   EventType = "notification"
	EventUnknown        EventType = "unknown"
)

// ProofOfDelivery carries the recipient signature and/or a delivery photo.
type ProofOfDelivery struct {
	Signature string `json:"signature,omitempty"`
	PhotoURL  string `json:"photo_url,omitempty"`
}

// IsEmpty reports whether neither a signature nor a photo is present.
func (p *ProofOfDelivery) IsEmpty() bool {
	return p == nil || (p.Signature == "" && p.PhotoURL == "")
}

// CanonicalEvent is a normalized delivery-status update, independent of the
// provider's payload schema.
type CanonicalEvent struct {
	CourierCode       CourierCode      `json:"courier_code"`
	TrackingNumber    string           `json:"tracking_number"`
	ShipmentID        string           `json:"shipment_id,omitempty"`
	EventType         EventType        `json:"event_type"`
	EventTimestamp    time.Time        `json:"event_timestamp"`
	Description       string           `json:"description,omitempty"`
	Location          string           `json:"location,omitempty"`
	ProviderStatus    string           `json:"provider_status"`
	EstimatedDelivery *time.Time       `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time       `json:"actual_delivery,omitempty"`
	ExceptionReason   string           `json:"exception_reason,omitempty"`
	ProofOfDelivery   *ProofOfDelivery `json:"proof_of_delivery,omitempty"`

	// RawPayload is the request body exactly as received.
	RawPayload []byte `json:"-"`
}

// Valid checks the invariants every adapter must uphold.
func (e CanonicalEvent) Valid() bool {
	return e.TrackingNumber != "" && !e.EventTimestamp.IsZero()
}

// TrackingEventRecord is the immutable audit row appended for every applied
// webhook.
type TrackingEventRecord struct {
	ID             string      `json:"id" db:"id"`
	OrderID        string      `json:"order_id" db:"order_id"`
	TrackingNumber string      `json:"tracking_number" db:"tracking_number"`
	CourierCode    CourierCode `json:"courier_code" db:"courier_code"`
	EventType      EventType   `json:"event_type" db:"event_type"`
	ProviderStatus string      `json:"provider_status" db:"provider_status"`
	UnifiedStatus  OrderStatus `json:"unified_status" db:"unified_status"`
	Description    string      `json:"description,omitempty" db:"description"`
	Location       string      `json:"location,omitempty" db:"location"`
	EventTimestamp time.Time   `json:"event_timestamp" db:"event_timestamp"`
	DedupeKey      string      `json:"dedupe_key" db:"dedupe_key"`
	RawPayload     []byte      `json:"-" db:"raw_payload"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// TrackingSnapshot is the short-lived view of a shipment kept in the
// tracking cache for fast status lookups.
type TrackingSnapshot struct {
	TrackingNumber    string      `json:"tracking_number"`
	OrderID           string      `json:"order_id"`
	CourierCode       CourierCode `json:"courier_code"`
	Status            OrderStatus `json:"status"`
	EventType         EventType   `json:"event_type"`
	ProviderStatus    string      `json:"provider_status"`
	Description       string      `json:"description,omitempty"`
	Location          string      `json:"location,omitempty"`
	EstimatedDelivery *time.Time  `json:"estimated_delivery,omitempty"`
	LastUpdate        time.Time   `json:"last_update"`
}

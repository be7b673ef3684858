package courier

import (
	"encoding/json"
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

var bringEventTypes = map[string]domain.EventType{
	"REGISTERED":       domain.EventLabelCreated,
	"COLLECTED":        domain.EventPickedUp,
	"IN_TRANSIT":       domain.EventInTransit,
	"DELIVERED":        domain.EventDelivered,
	"RETURNED":         domain.EventReturned,
	"EXCEPTION":        domain.EventException,
	"READY_FOR_PICKUP": domain.EventReadyForPickup,
}

type bringPayload struct {
	TrackingNumber    flexString  `json:"trackingNumber"`
	ShipmentNumber    flexString  `json:"shipmentNumber"`
	EstimatedDelivery string      `json:"estimatedDelivery"`
	Event             *bringEvent `json:"event"`
}

type bringEvent struct {
	Status      string   `json:"status"`
	Timestamp   string   `json:"timestamp"`
	Description string   `json:"description"`
	Location    location `json:"location"`
	Signature   string   `json:"signature"`
	PhotoURL    string   `json:"photoUrl"`
}

type bring struct{}

func (bring) Code() domain.CourierCode { return domain.CourierBring }

func (bring) MapEventType(status string) domain.EventType {
	return lookupEventType(bringEventTypes, status)
}

func (bring) verify(v *Verifier, req Request) bool { return v.verifyBring(req) }

func (bring) matchesShape(doc map[string]json.RawMessage) bool {
	tn, ok := doc["trackingNumber"]
	if !ok || !nonEmptyString(tn) {
		return false
	}
	return isObject(doc["event"])
}

func (b bring) Parse(req Request) (domain.CanonicalEvent, error) {
	var payload bringPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return domain.CanonicalEvent{}, malformed("bring: %v", err)
	}
	if payload.TrackingNumber == "" {
		return domain.CanonicalEvent{}, malformed("bring: trackingNumber is required")
	}
	if payload.Event == nil || strings.TrimSpace(payload.Event.Status) == "" {
		return domain.CanonicalEvent{}, malformed("bring: event.status is required")
	}

	e := payload.Event
	ts, err := eventTime("bring: event.timestamp", e.Timestamp, req.ReceivedAt)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	eta, err := optionalTime("bring: estimatedDelivery", payload.EstimatedDelivery)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	ev := domain.CanonicalEvent{
		CourierCode:       domain.CourierBring,
		TrackingNumber:    string(payload.TrackingNumber),
		ShipmentID:        string(payload.ShipmentNumber),
		EventType:         b.MapEventType(e.Status),
		EventTimestamp:    ts,
		Description:       strings.TrimSpace(e.Description),
		Location:          string(e.Location),
		ProviderStatus:    e.Status,
		EstimatedDelivery: eta,
		ProofOfDelivery:   proofOf(e.Signature, e.PhotoURL),
		RawPayload:        req.Body,
	}
	deriveOutcome(&ev)
	return ev, nil
}

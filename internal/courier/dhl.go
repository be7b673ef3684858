package courier

import (
	"encoding/json"
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

var dhlEventTypes = map[string]domain.EventType{
	"TRANSIT":          domain.EventInTransit,
	"DELIVERED":        domain.EventDelivered,
	"EXCEPTION":        domain.EventException,
	"RETURNED":         domain.EventReturned,
	"OUT_FOR_DELIVERY": domain.EventOutForDelivery,
}

type dhlPayload struct {
	Shipments []dhlShipment `json:"shipments"`
}

type dhlShipment struct {
	ID                      flexString `json:"id"`
	EstimatedTimeOfDelivery string     `json:"estimatedTimeOfDelivery"`
	Events                  []dhlEvent `json:"events"`
}

type dhlEvent struct {
	StatusCode  string   `json:"statusCode"`
	Timestamp   string   `json:"timestamp"`
	Description string   `json:"description"`
	Location    location `json:"location"`
}

type dhl struct{}

func (dhl) Code() domain.CourierCode { return domain.CourierDHL }

func (dhl) MapEventType(status string) domain.EventType {
	return lookupEventType(dhlEventTypes, status)
}

func (dhl) verify(v *Verifier, req Request) bool { return v.verifyDHL(req) }

func (dhl) matchesShape(doc map[string]json.RawMessage) bool {
	shipments, ok := nonEmptyArray(doc["shipments"])
	if !ok {
		return false
	}
	var first map[string]json.RawMessage
	if err := json.Unmarshal(shipments[0], &first); err != nil {
		return false
	}
	_, ok = nonEmptyArray(first["events"])
	return ok
}

func (d dhl) Parse(req Request) (domain.CanonicalEvent, error) {
	var payload dhlPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return domain.CanonicalEvent{}, malformed("dhl: %v", err)
	}
	if len(payload.Shipments) == 0 {
		return domain.CanonicalEvent{}, malformed("dhl: shipments must not be empty")
	}
	shipment := payload.Shipments[0]
	if len(shipment.Events) == 0 {
		return domain.CanonicalEvent{}, malformed("dhl: shipments[0].events must not be empty")
	}
	if shipment.ID == "" {
		return domain.CanonicalEvent{}, malformed("dhl: shipments[0].id is required")
	}

	times := make([]string, len(shipment.Events))
	for i, e := range shipment.Events {
		times[i] = e.Timestamp
	}
	latest := shipment.Events[latestIndex(times)]

	ts, err := eventTime("dhl: timestamp", latest.Timestamp, req.ReceivedAt)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	eta, err := optionalTime("dhl: estimatedTimeOfDelivery", shipment.EstimatedTimeOfDelivery)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	ev := domain.CanonicalEvent{
		CourierCode:       domain.CourierDHL,
		TrackingNumber:    string(shipment.ID),
		ShipmentID:        string(shipment.ID),
		EventType:         d.MapEventType(latest.StatusCode),
		EventTimestamp:    ts,
		Description:       strings.TrimSpace(latest.Description),
		Location:          string(latest.Location),
		ProviderStatus:    latest.StatusCode,
		EstimatedDelivery: eta,
		RawPayload:        req.Body,
	}
	deriveOutcome(&ev)
	return ev, nil
}

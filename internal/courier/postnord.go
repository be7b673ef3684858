package courier

import (
	"encoding/json"
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

var postNordEventTypes = map[string]domain.EventType{
	"INFORMED":                  domain.EventLabelCreated,
	"COLLECTED":                 domain.EventPickedUp,
	"IN_TRANSIT":                domain.EventInTransit,
	"ARRIVED_AT_DELIVERY_POINT": domain.EventOutForDelivery,
	"DELIVERED":                 domain.EventDelivered,
	"RETURNED":                  domain.EventReturned,
	"STOPPED":                   domain.EventException,
	"NOTIFICATION_SENT":         domain.EventNotification,
	"READY_FOR_PICKUP":          domain.EventReadyForPickup,
}

type postNordPayload struct {
	ShipmentID            flexString      `json:"shipmentId"`
	EstimatedDeliveryTime string          `json:"estimatedDeliveryTime"`
	Events                []postNordEvent `json:"events"`
}

type postNordEvent struct {
	EventCode        string   `json:"eventCode"`
	EventTime        string   `json:"eventTime"`
	EventDescription string   `json:"eventDescription"`
	Location         location `json:"location"`
	Signature        string   `json:"signature"`
	PhotoURL         string   `json:"photoUrl"`
}

type postNord struct{}

func (postNord) Code() domain.CourierCode { return domain.CourierPostNord }

func (postNord) MapEventType(status string) domain.EventType {
	return lookupEventType(postNordEventTypes, status)
}

func (postNord) verify(v *Verifier, req Request) bool { return v.verifyPostNord(req) }

func (postNord) matchesShape(doc map[string]json.RawMessage) bool {
	id, ok := doc["shipmentId"]
	if !ok || !nonEmptyString(id) {
		return false
	}
	_, ok = nonEmptyArray(doc["events"])
	return ok
}

func (p postNord) Parse(req Request) (domain.CanonicalEvent, error) {
	var payload postNordPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return domain.CanonicalEvent{}, malformed("postnord: %v", err)
	}
	if payload.ShipmentID == "" {
		return domain.CanonicalEvent{}, malformed("postnord: shipmentId is required")
	}
	if len(payload.Events) == 0 {
		return domain.CanonicalEvent{}, malformed("postnord: events must not be empty")
	}

	times := make([]string, len(payload.Events))
	for i, e := range payload.Events {
		times[i] = e.EventTime
	}
	latest := payload.Events[latestIndex(times)]

	ts, err := eventTime("postnord: eventTime", latest.EventTime, req.ReceivedAt)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	eta, err := optionalTime("postnord: estimatedDeliveryTime", payload.EstimatedDeliveryTime)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	ev := domain.CanonicalEvent{
		CourierCode:       domain.CourierPostNord,
		TrackingNumber:    string(payload.ShipmentID),
		ShipmentID:        string(payload.ShipmentID),
		EventType:         p.MapEventType(latest.EventCode),
		EventTimestamp:    ts,
		Description:       strings.TrimSpace(latest.EventDescription),
		Location:          string(latest.Location),
		ProviderStatus:    latest.EventCode,
		EstimatedDelivery: eta,
		ProofOfDelivery:   proofOf(latest.Signature, latest.PhotoURL),
		RawPayload:        req.Body,
	}
	deriveOutcome(&ev)
	return ev, nil
}

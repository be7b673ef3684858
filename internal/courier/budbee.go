package courier

import (
	"encoding/json"
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

var budbeeEventTypes = map[string]domain.EventType{
	"CREATED":          domain.EventLabelCreated,
	"PICKED_UP":        domain.EventPickedUp,
	"IN_TRANSIT":       domain.EventInTransit,
	"OUT_FOR_DELIVERY": domain.EventOutForDelivery,
	"DELIVERED":        domain.EventDelivered,
	"EXCEPTION":        domain.EventException,
}

type budbeePayload struct {
	OrderID           flexString `json:"orderId"`
	Status            string     `json:"status"`
	Timestamp         string     `json:"timestamp"`
	Message           string     `json:"message"`
	Location          location   `json:"location"`
	EstimatedDelivery string     `json:"estimatedDelivery"`
}

type budbee struct{}

func (budbee) Code() domain.CourierCode { return domain.CourierBudbee }

func (budbee) MapEventType(status string) domain.EventType {
	return lookupEventType(budbeeEventTypes, status)
}

func (budbee) verify(v *Verifier, req Request) bool { return v.verifyBudbee(req) }

func (budbee) matchesShape(doc map[string]json.RawMessage) bool {
	id, ok := doc["orderId"]
	if !ok || !nonEmptyString(id) {
		return false
	}
	st, ok := doc["status"]
	return ok && nonEmptyString(st)
}

func (b budbee) Parse(req Request) (domain.CanonicalEvent, error) {
	var payload budbeePayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return domain.CanonicalEvent{}, malformed("budbee: %v", err)
	}
	if payload.OrderID == "" {
		return domain.CanonicalEvent{}, malformed("budbee: orderId is required")
	}
	if strings.TrimSpace(payload.Status) == "" {
		return domain.CanonicalEvent{}, malformed("budbee: status is required")
	}

	ts, err := eventTime("budbee: timestamp", payload.Timestamp, req.ReceivedAt)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}
	eta, err := optionalTime("budbee: estimatedDelivery", payload.EstimatedDelivery)
	if err != nil {
		return domain.CanonicalEvent{}, err
	}

	ev := domain.CanonicalEvent{
		CourierCode:       domain.CourierBudbee,
		TrackingNumber:    string(payload.OrderID),
		ShipmentID:        string(payload.OrderID),
		EventType:         b.MapEventType(payload.Status),
		EventTimestamp:    ts,
		Description:       strings.TrimSpace(payload.Message),
		Location:          string(payload.Location),
		ProviderStatus:    payload.Status,
		EstimatedDelivery: eta,
		RawPayload:        req.Body,
	}
	deriveOutcome(&ev)
	return ev, nil
}

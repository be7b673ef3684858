package courier

import (
	"encoding/json"
	"strings"

	"github.com/ignite/courier-webhooks/internal/domain"
)

// Provider is the capability every courier variant implements.
type Provider interface {
	Code() domain.CourierCode

	// Parse extracts the canonical event. It fails with ErrMalformedPayload
	// when required fields are absent.
	Parse(req Request) (domain.CanonicalEvent, error)

	// MapEventType is total: unmapped statuses yield domain.EventUnknown.
	MapEventType(providerStatus string) domain.EventType

	verify(v *Verifier, req Request) bool
	matchesShape(doc map[string]json.RawMessage) bool
}

// For returns the provider for code.
func For(code domain.CourierCode) (Provider, bool) {
	switch code {
	case domain.CourierPostNord:
		return postNord{}, true
	case domain.CourierBring:
		return bring{}, true
	case domain.CourierBudbee:
		return budbee{}, true
	case domain.CourierDHL:
		return dhl{}, true
	}
	return nil, false
}

// MapEventType maps a provider status for code. Unknown couriers and
// unmapped statuses both yield domain.EventUnknown.
func MapEventType(code domain.CourierCode, providerStatus string) domain.EventType {
	p, ok := For(code)
	if !ok {
		return domain.EventUnknown
	}
	return p.MapEventType(providerStatus)
}

func lookupEventType(table map[string]domain.EventType, status string) domain.EventType {
	if t, ok := table[strings.ToUpper(strings.TrimSpace(status))]; ok {
		return t
	}
	return domain.EventUnknown
}

// deriveOutcome fills actual_delivery and exception_reason from the mapped
// event type.
func deriveOutcome(ev *domain.CanonicalEvent) {
	switch ev.EventType {
	case domain.EventDelivered:
		ts := ev.EventTimestamp
		ev.ActualDelivery = &ts
	case domain.EventException:
		ev.ExceptionReason = ev.Description
	}
}

func proofOf(signature, photoURL string) *domain.ProofOfDelivery {
	p := &domain.ProofOfDelivery{Signature: strings.TrimSpace(signature), PhotoURL: strings.TrimSpace(photoURL)}
	if p.IsEmpty() {
		return nil
	}
	return p
}
